package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/http/response"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

// POST /api/lessons/:id/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	lessonID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sum, err := h.progress.MarkLessonComplete(c.Request.Context(), userID, lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, sum)
}

// GET /api/progress/:kind/:id
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subjectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sum, err := h.progress.GetProgress(c.Request.Context(), userID, types.SubjectKind(c.Param("kind")), subjectID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, sum)
}
