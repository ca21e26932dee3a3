package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonProgressRepo interface {
	GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error)
	// MarkCompleted upserts by (user_id, lesson_id). A completed row is never
	// flipped back and its original completed_at is kept.
	MarkCompleted(dbc dbctx.Context, userID, lessonID uuid.UUID, at time.Time) error
	CountCompletedForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (int64, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	repoLog := baseLog.With("repo", "LessonProgressRepo")
	return &lessonProgressRepo{db: db, log: repoLog}
}

func (r *lessonProgressRepo) GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error) {
	var results []*types.LessonProgress
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonProgressRepo) MarkCompleted(dbc dbctx.Context, userID, lessonID uuid.UUID, at time.Time) error {
	row := &types.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &at,
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":  true,
				"updated_at": at,
			}),
		}).
		Create(row).Error
}

func (r *lessonProgressRepo) CountCompletedForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&types.LessonProgress{}).
		Joins("JOIN lesson ON lesson.id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lesson_progress.completed = ?", userID, true).
		Where("lesson.subject_kind = ? AND lesson.subject_id = ?", kind, subjectID).
		Count(&n).Error
	return n, err
}
