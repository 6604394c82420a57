// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"mailbox-server/internal/models"

	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// OpenTestDB opens a migrated in-memory SQLite database private to the test.
// The pool is capped at one connection so the shared-cache database is never
// seen half-written by a second connection.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, dbSeq.Add(1))

	db, err := models.InitDB(models.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUser inserts a user with the given username and password directly,
// bypassing signup.
func SeedUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Roles:     []string{models.DefaultRole},
	}
	if err := u.SetPassword(password); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// Bearer formats an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}
