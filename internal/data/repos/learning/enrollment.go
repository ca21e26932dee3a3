package learning

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error)
	// GetForSubject returns nil without error when the learner is not enrolled.
	GetForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*types.Enrollment, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.EnrollmentStatus) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error) {
	if len(rows) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) GetForSubject(dbc dbctx.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || subjectID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	err := dbc.Conn(r.db).
		Where("user_id = ? AND subject_kind = ? AND subject_id = ?", userID, kind, subjectID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *enrollmentRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.EnrollmentStatus) error {
	return dbc.Conn(r.db).
		Model(&types.Enrollment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
