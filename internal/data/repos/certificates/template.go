package certificates

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, tpl *types.CertificateTemplate) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CertificateTemplate, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	List(dbc dbctx.Context) ([]*types.CertificateTemplate, error)
	// FindForSubject returns the template bound to this exact subject.
	FindForSubject(dbc dbctx.Context, kind types.SubjectKind, subjectID uuid.UUID) (*types.CertificateTemplate, error)
	FindOrganizationDefault(dbc dbctx.Context, orgID uuid.UUID) (*types.CertificateTemplate, error)
	FindPlatformDefault(dbc dbctx.Context) (*types.CertificateTemplate, error)
	// ClearDefaults unsets is_default within one scope: an organization when
	// orgID is non-nil, otherwise the platform-wide templates.
	ClearDefaults(dbc dbctx.Context, orgID *uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) Create(dbc dbctx.Context, tpl *types.CertificateTemplate) error {
	if tpl == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(tpl).Error
}

func (r *templateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CertificateTemplate, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Conn(r.db).Where("id = ?", id))
}

func (r *templateRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.CertificateTemplate{}).Error
}

func (r *templateRepo) List(dbc dbctx.Context) ([]*types.CertificateTemplate, error) {
	var results []*types.CertificateTemplate
	if err := dbc.Conn(r.db).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) FindForSubject(dbc dbctx.Context, kind types.SubjectKind, subjectID uuid.UUID) (*types.CertificateTemplate, error) {
	if subjectID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Conn(r.db).
		Where("subject_kind = ? AND subject_id = ?", kind, subjectID).
		Order("created_at DESC"))
}

func (r *templateRepo) FindOrganizationDefault(dbc dbctx.Context, orgID uuid.UUID) (*types.CertificateTemplate, error) {
	if orgID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Conn(r.db).
		Where("organization_id = ? AND subject_id IS NULL AND is_default = ?", orgID, true).
		Order("created_at DESC"))
}

func (r *templateRepo) FindPlatformDefault(dbc dbctx.Context) (*types.CertificateTemplate, error) {
	return r.first(dbc.Conn(r.db).
		Where("organization_id IS NULL AND subject_id IS NULL AND is_default = ?", true).
		Order("created_at DESC"))
}

func (r *templateRepo) ClearDefaults(dbc dbctx.Context, orgID *uuid.UUID) error {
	q := dbc.Conn(r.db).Model(&types.CertificateTemplate{}).Where("is_default = ? AND subject_id IS NULL", true)
	if orgID != nil {
		q = q.Where("organization_id = ?", *orgID)
	} else {
		q = q.Where("organization_id IS NULL")
	}
	return q.Update("is_default", false).Error
}

func (r *templateRepo) first(q *gorm.DB) (*types.CertificateTemplate, error) {
	var row types.CertificateTemplate
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
