package learning

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type AssessmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error)
	// GetByID returns nil without error when the assessment does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	GetFinalForSubject(dbc dbctx.Context, kind types.SubjectKind, subjectID uuid.UUID) ([]*types.Assessment, error)
	CreateQuestions(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	// GetQuestionsWithAnswers loads the question set ordered by index with
	// answer options preloaded.
	GetQuestionsWithAnswers(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.Question, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	repoLog := baseLog.With("repo", "AssessmentRepo")
	return &assessmentRepo{db: db, log: repoLog}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error) {
	if len(rows) == 0 {
		return []*types.Assessment{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Assessment
	err := dbc.Conn(r.db).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *assessmentRepo) GetFinalForSubject(dbc dbctx.Context, kind types.SubjectKind, subjectID uuid.UUID) ([]*types.Assessment, error) {
	var results []*types.Assessment
	if err := dbc.Conn(r.db).
		Where("subject_kind = ? AND subject_id = ? AND kind = ? AND is_final = ?", kind, subjectID, types.AssessmentExam, true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assessmentRepo) CreateQuestions(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := dbc.Conn(r.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *assessmentRepo) GetQuestionsWithAnswers(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.Question, error) {
	var results []*types.Question
	if assessmentID == uuid.Nil {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Preload("Answers").
		Where("assessment_id = ?", assessmentID).
		Order("\"index\" ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
