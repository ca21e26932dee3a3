package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/http/response"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

type CertificateHandler struct {
	log          *logger.Logger
	issuer       services.CertificateIssuer
	certificates services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, issuer services.CertificateIssuer, certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		log:          log.With("handler", "CertificateHandler"),
		issuer:       issuer,
		certificates: certificates,
	}
}

type issueBody struct {
	SubjectKind types.SubjectKind `json:"subject_kind" binding:"required"`
	SubjectID   uuid.UUID         `json:"subject_id" binding:"required"`
}

// POST /api/certificates/issue retries issuance for the caller after a
// passing final exam.
func (h *CertificateHandler) Issue(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body issueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.issuer.IssueForLearner(c.Request.Context(), userID, body.SubjectKind, body.SubjectID)
	if err != nil {
		h.log.Warn("Issue failed", "user_id", userID, "subject_id", body.SubjectID, "error", err)
		response.RespondServiceError(c, err)
		return
	}
	if res.Existing {
		response.RespondOK(c, res)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/me/certificates
func (h *CertificateHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	certs, err := h.certificates.ListForLearner(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}
