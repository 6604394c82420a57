package handlers

import (
	"mailbox-server/internal/models"
	"mailbox-server/internal/services"
	"mailbox-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user directory.
type UserHandler struct {
	Users *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

// GetUsers lists every user as a summary, e.g. to pick a recipient.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Users.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	utils.Success(c, "Users fetched successfully", summaries)
}

// GetMe returns the full profile of the authenticated user.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "Profile fetched successfully", user.Profile())
}

// GetUserByID returns one user's summary.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, "User fetched successfully", user.Summary())
}
