package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"ugc-studio/internal/middleware"
	"ugc-studio/internal/models"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: code, Message: message})
}

// requireUser reads the authenticated user or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "user id not found", "Not authorized")
		return "", false
	}
	return userID, true
}

// requireProjectID validates a project id taken from the request or writes a 400.
func requireProjectID(c *gin.Context, raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid project id", "Invalid project id")
		return "", false
	}
	return id.String(), true
}
