package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/http/response"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

type AssessmentHandler struct {
	log    *logger.Logger
	grader services.GradingService
}

func NewAssessmentHandler(log *logger.Logger, grader services.GradingService) *AssessmentHandler {
	return &AssessmentHandler{
		log:    log.With("handler", "AssessmentHandler"),
		grader: grader,
	}
}

type submissionBody struct {
	Kind    types.AssessmentKind       `json:"kind"`
	Answers []services.SubmittedAnswer `json:"answers"`
}

// POST /api/assessments/:id/submissions
func (h *AssessmentHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var body submissionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidSubmission, err)
		return
	}
	res, err := h.grader.Submit(c.Request.Context(), userID, services.SubmissionRequest{
		Kind:         body.Kind,
		AssessmentID: assessmentID,
		Answers:      body.Answers,
	})
	if err != nil {
		h.log.Warn("Submit failed", "user_id", userID, "assessment_id", assessmentID, "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/assessments/:id/standing
func (h *AssessmentHandler) Standing(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	st, err := h.grader.GetStanding(c.Request.Context(), userID, assessmentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, st)
}
