package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mailbox-server/internal/auth"
	"mailbox-server/internal/logging"
	"mailbox-server/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *auth.TokenManager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(tokens)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := GetUserIDFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "username": c.GetString(ContextUsername)})
	})
	r.GET("/private", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, err := tokens.Generate(auth.Identity{UserID: 7, Username: "alice", Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)

	other, err := auth.NewTokenManager("other", time.Hour).Generate(auth.Identity{UserID: 7})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", testutil.Bearer(token), http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"garbage", testutil.Bearer("not-a-jwt"), http.StatusUnauthorized},
		{"foreign signature", testutil.Bearer(other), http.StatusUnauthorized},
	}

	r := newRouter(tokens)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"username":"alice"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"status":401`)
			}
		})
	}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newRouter(tokens, RoleAuthMiddleware("ROLE_USER"))

	user, err := tokens.Generate(auth.Identity{UserID: 1, Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)
	roleless, err := tokens.Generate(auth.Identity{UserID: 2})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, testutil.Bearer(user)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, testutil.Bearer(roleless)).Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("info", "json", &buf)
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, err := tokens.Generate(auth.Identity{UserID: 3, Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/private", AuthMiddleware(tokens), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do(r, testutil.Bearer(token))
	assert.Contains(t, buf.String(), `"msg":"request handled"`)
	assert.Contains(t, buf.String(), `"status":204`)
	assert.Contains(t, buf.String(), `"user_id":3`)

	buf.Reset()
	do(r, "")
	assert.Contains(t, buf.String(), `"msg":"request rejected"`)
	assert.Contains(t, buf.String(), `"status":401`)
	assert.NotContains(t, buf.String(), "user_id")
}
