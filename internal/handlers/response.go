package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service sentinels onto HTTP statuses so
// every handler reports them the same way.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrNotAuthenticated):
		RespondError(c, http.StatusUnauthorized, "not_authenticated", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, services.ErrEmailTaken):
		RespondError(c, http.StatusConflict, "email_taken", err)
	case errors.Is(err, services.ErrRunInProgress):
		RespondError(c, http.StatusConflict, "run_in_progress", err)
	case errors.Is(err, services.ErrEmptyContent):
		RespondError(c, http.StatusConflict, "empty_content", err)
	case errors.Is(err, services.ErrStorageUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
