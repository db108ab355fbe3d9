package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

type setStudioKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// PUT /users/me/studio-key
func (h *UserHandler) SetStudioAPIKey(c *gin.Context) {
	var req setStudioKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.userService.SetStudioAPIKey(c.Request.Context(), req.APIKey); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "updated"})
}
