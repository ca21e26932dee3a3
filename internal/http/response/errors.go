package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/services"
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

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// StatusFor maps a service error kind onto an HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindRender, apperr.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes err using its kind. Render and storage details
// stay in the logs; the client only sees a retryable message.
func RespondServiceError(c *gin.Context, err error) {
	status := StatusFor(err)
	code := apperr.CodeOf(err)
	switch {
	case status == http.StatusServiceUnavailable:
		if code == "" {
			code = "render_failed"
		}
		RespondError(c, status, code, errors.New(services.CertificateFailedMessage))
	case status == http.StatusInternalServerError:
		RespondError(c, status, "internal_error", errors.New("internal error"))
	default:
		if code == "" {
			code = string(apperr.KindOf(err))
		}
		var e *apperr.Error
		if errors.As(err, &e) && e.Err != nil {
			RespondError(c, status, code, e.Err)
			return
		}
		RespondError(c, status, code, err)
	}
}
