package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

type VerificationHandler struct {
	log      *logger.Logger
	verifier services.VerificationService
}

func NewVerificationHandler(log *logger.Logger, verifier services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		log:      log.With("handler", "VerificationHandler"),
		verifier: verifier,
	}
}

// Verify is public. Unknown, malformed and unreadable hashes all answer 404
// with the same body.
func (h *VerificationHandler) Verify(c *gin.Context) {
	report := h.verifier.Verify(c.Request.Context(), c.Param("hash"))
	status := http.StatusOK
	if !report.Found {
		status = http.StatusNotFound
	}
	c.JSON(status, report)
}
