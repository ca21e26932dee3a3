package learning

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type AttemptRepo interface {
	Create(dbc dbctx.Context, attempt *types.Attempt) error
	ListByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) ([]*types.Attempt, error)
	HasPassed(dbc dbctx.Context, userID, assessmentID uuid.UUID) (bool, error)
	// BestPassingForSubject returns the highest-scoring passing attempt on any
	// certificate-issuing assessment of the subject, or nil.
	BestPassingForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*types.Attempt, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) Create(dbc dbctx.Context, attempt *types.Attempt) error {
	if attempt == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(attempt).Error
}

func (r *attemptRepo) ListByUserAndAssessment(dbc dbctx.Context, userID, assessmentID uuid.UUID) ([]*types.Attempt, error) {
	var results []*types.Attempt
	if userID == uuid.Nil || assessmentID == uuid.Nil {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attemptRepo) HasPassed(dbc dbctx.Context, userID, assessmentID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&types.Attempt{}).
		Where("user_id = ? AND assessment_id = ? AND passed = ?", userID, assessmentID, true).
		Count(&n).Error
	return n > 0, err
}

func (r *attemptRepo) BestPassingForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*types.Attempt, error) {
	var row types.Attempt
	err := dbc.Conn(r.db).
		Model(&types.Attempt{}).
		Joins("JOIN assessment ON assessment.id = assessment_attempt.assessment_id").
		Where("assessment_attempt.user_id = ? AND assessment_attempt.passed = ?", userID, true).
		Where("assessment.subject_kind = ? AND assessment.subject_id = ?", kind, subjectID).
		Where("assessment.kind = ? AND assessment.is_final = ?", types.AssessmentExam, true).
		Order("assessment_attempt.score DESC").
		Order("assessment_attempt.created_at ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
