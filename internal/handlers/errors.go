package handlers

import (
	"errors"
	"strconv"

	"mailbox-server/internal/middleware"
	"mailbox-server/internal/services"
	"mailbox-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the matching HTTP error response.
// Unexpected errors are attached to the gin context for the request logger
// and reported to the client without detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotParticipant):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		utils.InternalServerError(c, "Internal server error")
	}
}

// currentUserID reads the authenticated user id, answering 401 when absent.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
	}
	return userID, ok
}

// pathID parses a positive numeric path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		utils.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return uint(id), true
}
