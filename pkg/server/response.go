package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/japaniel/lector/pkg/apperr"
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

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.UnsupportedLanguage, apperr.ExtractionFailed:
		return http.StatusUnprocessableEntity
	case apperr.FetchFailed, apperr.LLMInvocationFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondAppError writes err with the status of its kind, or a 500 with
// fallbackCode when it has none.
func respondAppError(c *gin.Context, err error, fallbackCode string) {
	kind := apperr.KindOf(err)
	if kind == "" {
		RespondError(c, http.StatusInternalServerError, fallbackCode, err)
		return
	}
	RespondError(c, statusFor(kind), string(kind), err)
}
