package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/learning/grading"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const CodeEnrollmentRequired = "enrollment_required"

type ProgressSummary struct {
	SubjectKind      types.SubjectKind `json:"subject_kind"`
	SubjectID        uuid.UUID         `json:"subject_id"`
	CompletedLessons int64             `json:"completed_lessons"`
	TotalLessons     int64             `json:"total_lessons"`
	Percentage       float64           `json:"percentage"`
}

type ProgressService interface {
	// MarkLessonComplete is idempotent and never reverts a completed lesson.
	MarkLessonComplete(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressSummary, error)
	GetProgress(ctx context.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*ProgressSummary, error)
}

type progressService struct {
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	lessons     repos.LessonRepo
	progress    repos.LessonProgressRepo
	now         func() time.Time
}

func NewProgressService(
	baseLog *logger.Logger,
	enrollments repos.EnrollmentRepo,
	lessons repos.LessonRepo,
	progress repos.LessonProgressRepo,
) ProgressService {
	return &progressService{
		log:         baseLog.With("service", "ProgressService"),
		enrollments: enrollments,
		lessons:     lessons,
		progress:    progress,
		now:         time.Now,
	}
}

func (s *progressService) MarkLessonComplete(ctx context.Context, userID, lessonID uuid.UUID) (*ProgressSummary, error) {
	const op = "progress.MarkLessonComplete"
	dbc := dbctx.Context{Ctx: ctx}

	found, err := s.lessons.GetByIDs(dbc, []uuid.UUID{lessonID})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if len(found) == 0 {
		return nil, apperr.NotFound(op, "lesson_not_found")
	}
	lesson := found[0]

	if err := requireApprovedEnrollment(dbc, s.enrollments, op, userID, lesson.SubjectKind, lesson.SubjectID); err != nil {
		return nil, err
	}
	if err := s.progress.MarkCompleted(dbc, userID, lessonID, s.now().UTC()); err != nil {
		return nil, apperr.Storage(op, err)
	}
	s.log.Debug("Lesson completed", "user_id", userID, "lesson_id", lessonID)
	return s.summary(dbc, op, userID, lesson.SubjectKind, lesson.SubjectID)
}

func (s *progressService) GetProgress(ctx context.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*ProgressSummary, error) {
	const op = "progress.GetProgress"
	if !kind.Valid() {
		return nil, apperr.Validation(op, "invalid_subject_kind", "unknown subject kind %q", kind)
	}
	return s.summary(dbctx.Context{Ctx: ctx}, op, userID, kind, subjectID)
}

func (s *progressService) summary(dbc dbctx.Context, op string, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*ProgressSummary, error) {
	total, err := s.lessons.CountBySubject(dbc, kind, subjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	completed, err := s.progress.CountCompletedForSubject(dbc, userID, kind, subjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return &ProgressSummary{
		SubjectKind:      kind,
		SubjectID:        subjectID,
		CompletedLessons: completed,
		TotalLessons:     total,
		Percentage:       grading.Percentage(int(completed), int(total)),
	}, nil
}

// requireApprovedEnrollment gates progress and grading on an APPROVED
// enrollment in the subject.
func requireApprovedEnrollment(dbc dbctx.Context, enrollments repos.EnrollmentRepo, op string, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) error {
	enr, err := enrollments.GetForSubject(dbc, userID, kind, subjectID)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if !enr.Approved() {
		return apperr.Validation(op, CodeEnrollmentRequired, "no approved enrollment in %s %s", kind, subjectID)
	}
	return nil
}
