package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const CodeInvalidTemplate = "invalid_template"

// TemplateScope narrows where a template applies. Leaving every field nil
// makes it platform-wide.
type TemplateScope struct {
	SubjectKind    *types.SubjectKind
	SubjectID      *uuid.UUID
	OrganizationID *uuid.UUID
}

type TemplateUpload struct {
	Name      string
	Scope     TemplateScope
	IsDefault bool
	Data      []byte
}

type CertificateTemplateService interface {
	Upload(ctx context.Context, in TemplateUpload) (*types.CertificateTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*types.CertificateTemplate, error)
}

type certificateTemplateService struct {
	db        *gorm.DB
	log       *logger.Logger
	templates repos.TemplateRepo
	blobs     BlobStore
	now       func() time.Time
}

func NewCertificateTemplateService(db *gorm.DB, baseLog *logger.Logger, templates repos.TemplateRepo, blobs BlobStore) CertificateTemplateService {
	return &certificateTemplateService{
		db:        db,
		log:       baseLog.With("service", "CertificateTemplateService"),
		templates: templates,
		blobs:     blobs,
		now:       time.Now,
	}
}

func (s *certificateTemplateService) Upload(ctx context.Context, in TemplateUpload) (*types.CertificateTemplate, error) {
	const op = "templates.Upload"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(op, CodeInvalidTemplate, "name is required")
	}
	if err := validateScope(in.Scope); err != nil {
		return nil, apperr.Validation(op, CodeInvalidTemplate, "%v", err)
	}
	if err := render.ValidateDocx(in.Data); err != nil {
		return nil, apperr.Validation(op, CodeInvalidTemplate, "%v", err)
	}
	fields, err := render.Placeholders(in.Data)
	if err != nil {
		return nil, apperr.Validation(op, CodeInvalidTemplate, "%v", err)
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}

	key := fmt.Sprintf("templates/%d_%s.docx", s.now().UnixMilli(), sanitizeObjectName(name))
	fileURL, err := s.blobs.Put(ctx, key, in.Data)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	tpl := &types.CertificateTemplate{
		Name:           name,
		StorageKey:     key,
		FileURL:        fileURL,
		Fields:         datatypes.JSON(fieldsJSON),
		IsDefault:      in.IsDefault,
		SubjectKind:    in.Scope.SubjectKind,
		SubjectID:      in.Scope.SubjectID,
		OrganizationID: in.Scope.OrganizationID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if tpl.IsDefault && tpl.SubjectID == nil {
			if err := s.templates.ClearDefaults(dbc, tpl.OrganizationID); err != nil {
				return err
			}
		}
		return s.templates.Create(dbc, tpl)
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), fileURL); delErr != nil {
			s.log.Warn("Failed to delete orphaned template", "key", key, "error", delErr)
		}
		return nil, apperr.Storage(op, err)
	}
	s.log.Info("Certificate template uploaded", "template_id", tpl.ID, "fields", fields, "is_default", tpl.IsDefault)
	return tpl, nil
}

// Delete removes the stored document before the row. An issuance already
// holding the row may still try to download it and fail.
func (s *certificateTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "templates.Delete"
	dbc := dbctx.Context{Ctx: ctx}
	tpl, err := s.templates.GetByID(dbc, id)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if tpl == nil {
		return apperr.NotFound(op, "template_not_found")
	}
	if err := s.blobs.Delete(ctx, tpl.FileURL); err != nil {
		return apperr.Storage(op, err)
	}
	if err := s.templates.Delete(dbc, id); err != nil {
		return apperr.Storage(op, err)
	}
	s.log.Info("Certificate template deleted", "template_id", id)
	return nil
}

func (s *certificateTemplateService) List(ctx context.Context) ([]*types.CertificateTemplate, error) {
	rows, err := s.templates.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, apperr.Storage("templates.List", err)
	}
	return rows, nil
}

func validateScope(sc TemplateScope) error {
	if (sc.SubjectKind == nil) != (sc.SubjectID == nil) {
		return fmt.Errorf("subject_kind and subject_id go together")
	}
	if sc.SubjectKind != nil && !sc.SubjectKind.Valid() {
		return fmt.Errorf("unknown subject kind %q", *sc.SubjectKind)
	}
	return nil
}
