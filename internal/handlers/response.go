package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
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

// RespondFault maps a classified error onto an HTTP status.
func RespondFault(c *gin.Context, err error) {
	switch fault.KindOf(err) {
	case fault.KindInputInvalid:
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case fault.KindQuotaExceeded:
		RespondError(c, http.StatusTooManyRequests, "quota_exceeded", err)
	case fault.KindTransient:
		RespondError(c, http.StatusServiceUnavailable, "upstream_unavailable", err)
	case fault.KindContractViolation:
		RespondError(c, http.StatusBadGateway, "upstream_contract", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
