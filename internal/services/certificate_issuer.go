package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/learnproof-backend/internal/clients/redis"
	dbpkg "github.com/yungbote/learnproof-backend/internal/data/db"
	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/signing"
	"github.com/yungbote/learnproof-backend/internal/observability"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const (
	CodeNoPassingAttempt    = "no_passing_attempt"
	CodeTemplateUnavailable = "template_unavailable"

	blobCleanupTimeout = 15 * time.Second
)

var tracer = otel.Tracer("learnproof/certificates")

type IssueRequest struct {
	UserID      uuid.UUID
	SubjectKind types.SubjectKind
	SubjectID   uuid.UUID
	Score       float64
}

type IssueResult struct {
	Certificate *types.Certificate `json:"certificate"`
	// Existing is true when the pair already had a certificate, including
	// when a concurrent issuance won the insert.
	Existing bool `json:"existing"`
}

type CertificateIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
	// IssueForLearner retries issuance for a learner who already passed the
	// subject's final exam, using their best passing score.
	IssueForLearner(ctx context.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*IssueResult, error)
}

// DocumentRenderer merges certificate fields into a DOCX template.
type DocumentRenderer interface {
	Render(ctx context.Context, docx []byte, f render.Fields) ([]byte, error)
}

// PageRenderer draws a certificate without a template.
type PageRenderer interface {
	Render(ctx context.Context, f render.Fields) ([]byte, error)
}

type CertificateIssuerConfig struct {
	Secret string
	// VerifyBaseURL is the public origin printed on certificates; the hash is
	// appended as /verify/<hash>.
	VerifyBaseURL string
}

type CertificateIssuerDeps struct {
	DB           *gorm.DB
	Users        repos.UserRepo
	Subjects     repos.SubjectRepo
	Certificates repos.CertificateRepo
	Templates    repos.TemplateRepo
	Attempts     repos.AttemptRepo

	Documents DocumentRenderer
	Pages     PageRenderer

	CertificateBlobs BlobStore
	TemplateBlobs    BlobStore

	// Locator is optional; issuance warms it so the first verification skips
	// the second table lookup.
	Locator redisclient.VerificationCache
}

type certificateIssuer struct {
	cfg  CertificateIssuerConfig
	deps CertificateIssuerDeps
	log  *logger.Logger

	flight singleflight.Group
	now    func() time.Time
}

func NewCertificateIssuer(baseLog *logger.Logger, cfg CertificateIssuerConfig, deps CertificateIssuerDeps) CertificateIssuer {
	if deps.Locator == nil {
		deps.Locator = redisclient.NopVerificationCache()
	}
	return &certificateIssuer{
		cfg:  cfg,
		deps: deps,
		log:  baseLog.With("service", "CertificateIssuer"),
		now:  time.Now,
	}
}

func (s *certificateIssuer) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	const op = "certificates.Issue"
	if req.UserID == uuid.Nil || req.SubjectID == uuid.Nil {
		return nil, apperr.Validation(op, "invalid_request", "missing learner or subject id")
	}
	if !req.SubjectKind.Valid() {
		return nil, apperr.Validation(op, "invalid_subject_kind", "unknown subject kind %q", req.SubjectKind)
	}
	if req.Score < 0 || req.Score > 100 {
		return nil, apperr.Validation(op, "invalid_score", "score %.1f out of range", req.Score)
	}

	// Collapses duplicate in-process calls only; the unique index on the pair
	// decides races across processes. The shared issuance outlives any one
	// caller; each caller still stops waiting when its own ctx ends.
	key := string(req.SubjectKind) + ":" + req.UserID.String() + ":" + req.SubjectID.String()
	ch := s.flight.DoChan(key, func() (any, error) {
		return s.issue(context.WithoutCancel(ctx), req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*IssueResult), nil
	}
}

func (s *certificateIssuer) IssueForLearner(ctx context.Context, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID) (*IssueResult, error) {
	const op = "certificates.IssueForLearner"
	if !kind.Valid() {
		return nil, apperr.Validation(op, "invalid_subject_kind", "unknown subject kind %q", kind)
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := s.deps.Certificates.GetByPair(dbc, kind, userID, subjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if existing != nil {
		return &IssueResult{Certificate: existing, Existing: true}, nil
	}

	best, err := s.deps.Attempts.BestPassingForSubject(dbc, userID, kind, subjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if best == nil {
		return nil, apperr.Validation(op, CodeNoPassingAttempt, "no passing final exam attempt for %s %s", kind, subjectID)
	}
	return s.Issue(ctx, IssueRequest{
		UserID:      userID,
		SubjectKind: kind,
		SubjectID:   subjectID,
		Score:       best.Score,
	})
}

func (s *certificateIssuer) issue(ctx context.Context, req IssueRequest) (res *IssueResult, err error) {
	const op = "certificates.Issue"
	ctx, span := tracer.Start(ctx, "certificate.issue")
	span.SetAttributes(
		attribute.String("subject.kind", string(req.SubjectKind)),
		attribute.String("subject.id", req.SubjectID.String()),
	)
	defer func() {
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, "issue failed")
			observability.Current().IncIssuance(string(req.SubjectKind), "failed")
		case res.Existing:
			observability.Current().IncIssuance(string(req.SubjectKind), "existing")
		default:
			observability.Current().IncIssuance(string(req.SubjectKind), "issued")
		}
		span.End()
	}()

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.deps.Certificates.GetByPair(dbc, req.SubjectKind, req.UserID, req.SubjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if existing != nil {
		return &IssueResult{Certificate: existing, Existing: true}, nil
	}

	learner, err := s.deps.Users.GetByID(dbc, req.UserID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if learner == nil {
		return nil, apperr.NotFound(op, "learner_not_found")
	}
	subject, err := s.deps.Subjects.GetSubject(dbc, req.SubjectKind, req.SubjectID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if subject == nil {
		return nil, apperr.NotFound(op, "subject_not_found")
	}

	issuedAt := s.now().UTC()
	hash := signing.Hash(learner.ID, subject.ID, issuedAt)
	signature := signing.Signature(hash, learner.ID, subject.ID, req.Score, s.cfg.Secret)

	fields := render.Fields{
		LearnerName:    learner.FullName(),
		DocumentNumber: learner.DocumentNumber,
		SubjectTitle:   subject.Title,
		DurationHours:  subject.DurationHours,
		CompletionDate: issuedAt,
		Score:          req.Score,
		Hash:           hash,
		VerifyURL:      s.verifyURL(hash),
	}
	pdf, err := s.render(ctx, subject, fields)
	if err != nil {
		s.log.Warn("Certificate render failed", "learner_id", learner.ID, "subject_id", subject.ID, "error", err)
		return nil, err
	}

	key := fmt.Sprintf("certificates/%d_%s_%s.pdf", issuedAt.UnixMilli(), sanitizeObjectName(learner.FullName()), hash)
	pdfURL, err := s.deps.CertificateBlobs.Put(ctx, key, pdf)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	cert := &types.Certificate{
		Kind:      req.SubjectKind,
		UserID:    learner.ID,
		SubjectID: subject.ID,
		Hash:      hash,
		Signature: signature,
		Score:     req.Score,
		PDFURL:    pdfURL,
		IssueDate: issuedAt,
	}
	insertErr := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deps.Certificates.Create(dbctx.Context{Ctx: ctx, Tx: tx}, cert)
	})
	if insertErr != nil {
		s.discardBlob(ctx, pdfURL)
		if dbpkg.IsUniqueViolation(insertErr) {
			winner, err := s.deps.Certificates.GetByPair(dbc, req.SubjectKind, req.UserID, req.SubjectID)
			if err != nil {
				return nil, apperr.Storage(op, err)
			}
			if winner != nil {
				s.log.Info("Concurrent issuance lost the insert; returning winner", "learner_id", learner.ID, "hash", winner.Hash)
				return &IssueResult{Certificate: winner, Existing: true}, nil
			}
		}
		return nil, apperr.Storage(op, insertErr)
	}

	if err := s.deps.Locator.SetKind(ctx, hash, req.SubjectKind); err != nil {
		s.log.Warn("Verification cache warm failed", "hash", hash, "error", err)
	}
	s.log.Info("Certificate issued", "learner_id", learner.ID, "subject_kind", req.SubjectKind, "subject_id", subject.ID, "hash", hash)
	return &IssueResult{Certificate: cert}, nil
}

func (s *certificateIssuer) render(ctx context.Context, subject *types.Subject, fields render.Fields) (pdf []byte, err error) {
	const op = "certificates.render"
	ctx, span := tracer.Start(ctx, "certificate.render")
	start := time.Now()
	renderer := "synthesized"
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
		}
		observability.Current().ObserveRender(renderer, status, time.Since(start))
		span.End()
	}()

	tpl, err := s.resolveTemplate(dbctx.Context{Ctx: ctx}, subject)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if tpl == nil {
		span.SetAttributes(attribute.String("render.strategy", "synthesized"))
		return s.deps.Pages.Render(ctx, fields)
	}

	renderer = "template"
	span.SetAttributes(
		attribute.String("render.strategy", "template"),
		attribute.String("template.id", tpl.ID.String()),
	)
	docx, err := s.deps.TemplateBlobs.Get(ctx, tpl.FileURL)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, apperr.Validation(op, CodeTemplateUnavailable, "template %s: %v", tpl.ID, err)
	}
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return s.deps.Documents.Render(ctx, docx, fields)
}

// resolveTemplate picks the most specific template: the subject's own, then
// its organization's default, then the platform default. nil means none.
func (s *certificateIssuer) resolveTemplate(dbc dbctx.Context, subject *types.Subject) (*types.CertificateTemplate, error) {
	tpl, err := s.deps.Templates.FindForSubject(dbc, subject.Kind, subject.ID)
	if err != nil || tpl != nil {
		return tpl, err
	}
	if subject.OrganizationID != nil {
		tpl, err = s.deps.Templates.FindOrganizationDefault(dbc, *subject.OrganizationID)
		if err != nil || tpl != nil {
			return tpl, err
		}
	}
	return s.deps.Templates.FindPlatformDefault(dbc)
}

// discardBlob is best effort; a leaked object is logged, never surfaced.
func (s *certificateIssuer) discardBlob(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blobCleanupTimeout)
	defer cancel()
	if err := s.deps.CertificateBlobs.Delete(ctx, url); err != nil {
		s.log.Warn("Failed to delete orphaned certificate pdf", "url", url, "error", err)
	}
}

func (s *certificateIssuer) verifyURL(hash string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.VerifyBaseURL), "/")
	return base + "/verify/" + hash
}

// sanitizeObjectName keeps ASCII letters and digits and folds every other run
// of characters into a single underscore.
func sanitizeObjectName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out == "" {
		return "unnamed"
	}
	return out
}
