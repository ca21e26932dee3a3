package catalog

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type SubjectRepo interface {
	CreateOrganization(dbc dbctx.Context, org *types.Organization) error
	CreateCourse(dbc dbctx.Context, course *types.Course) error
	CreateTraining(dbc dbctx.Context, training *types.Training) error
	// GetSubject returns nil without error when the subject does not exist.
	GetSubject(dbc dbctx.Context, kind types.SubjectKind, id uuid.UUID) (*types.Subject, error)
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) CreateOrganization(dbc dbctx.Context, org *types.Organization) error {
	return dbc.Conn(r.db).Create(org).Error
}

func (r *subjectRepo) CreateCourse(dbc dbctx.Context, course *types.Course) error {
	return dbc.Conn(r.db).Create(course).Error
}

func (r *subjectRepo) CreateTraining(dbc dbctx.Context, training *types.Training) error {
	return dbc.Conn(r.db).Create(training).Error
}

func (r *subjectRepo) GetSubject(dbc dbctx.Context, kind types.SubjectKind, id uuid.UUID) (*types.Subject, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	switch kind {
	case types.SubjectCourse:
		var c types.Course
		if err := dbc.Conn(r.db).Where("id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &types.Subject{
			Kind:           types.SubjectCourse,
			ID:             c.ID,
			OrganizationID: c.OrganizationID,
			Title:          c.Title,
			DurationHours:  c.DurationHours,
		}, nil
	case types.SubjectTraining:
		var t types.Training
		if err := dbc.Conn(r.db).Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		orgID := t.OrganizationID
		return &types.Subject{
			Kind:           types.SubjectTraining,
			ID:             t.ID,
			OrganizationID: &orgID,
			Title:          t.Title,
			DurationHours:  t.DurationHours,
		}, nil
	default:
		return nil, nil
	}
}
