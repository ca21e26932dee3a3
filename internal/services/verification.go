package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	redisclient "github.com/yungbote/learnproof-backend/internal/clients/redis"
	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/signing"
	"github.com/yungbote/learnproof-backend/internal/observability"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

// VerificationReport is the public answer for a hash. Only Found is set when
// nothing matched, whatever the reason.
type VerificationReport struct {
	Found           bool              `json:"found"`
	ValidSignature  bool              `json:"valid_signature"`
	Hash            string            `json:"hash,omitempty"`
	SubjectKind     types.SubjectKind `json:"subject_kind,omitempty"`
	LearnerName     string            `json:"learner_name,omitempty"`
	AssessableTitle string            `json:"assessable_title,omitempty"`
	Score           *float64          `json:"score,omitempty"`
	IssueDate       *time.Time        `json:"issue_date,omitempty"`
}

type VerificationService interface {
	Verify(ctx context.Context, hash string) *VerificationReport
}

type verificationService struct {
	log          *logger.Logger
	secret       string
	certificates repos.CertificateRepo
	users        repos.UserRepo
	subjects     repos.SubjectRepo
	locator      redisclient.VerificationCache
}

func NewVerificationService(
	baseLog *logger.Logger,
	secret string,
	certificates repos.CertificateRepo,
	users repos.UserRepo,
	subjects repos.SubjectRepo,
	locator redisclient.VerificationCache,
) VerificationService {
	if locator == nil {
		locator = redisclient.NopVerificationCache()
	}
	return &verificationService{
		log:          baseLog.With("service", "VerificationService"),
		secret:       secret,
		certificates: certificates,
		users:        users,
		subjects:     subjects,
		locator:      locator,
	}
}

var searchOrder = []types.SubjectKind{types.SubjectCourse, types.SubjectTraining}

func (s *verificationService) Verify(ctx context.Context, raw string) (report *VerificationReport) {
	ctx, span := tracer.Start(ctx, "certificate.verify")
	defer func() {
		result := "not_found"
		switch {
		case report.Found && report.ValidSignature:
			result = "valid"
		case report.Found:
			result = "invalid_signature"
		}
		observability.Current().IncVerification(result)
		span.End()
	}()

	hash := signing.NormalizeHash(raw)
	if !signing.ValidHash(hash) {
		return &VerificationReport{}
	}

	cert, err := s.lookup(ctx, hash)
	if err != nil {
		s.log.Error("Certificate verification lookup failed", "hash", hash, "error", err)
		return &VerificationReport{}
	}
	if cert == nil {
		return &VerificationReport{}
	}
	span.SetAttributes(attribute.String("subject.kind", string(cert.Kind)))

	dbc := dbctx.Context{Ctx: ctx}
	learner, err := s.users.GetByID(dbc, cert.UserID)
	if err != nil || learner == nil {
		s.log.Error("Certificate learner missing", "hash", hash, "learner_id", cert.UserID, "error", err)
		return &VerificationReport{}
	}
	subject, err := s.subjects.GetSubject(dbc, cert.Kind, cert.SubjectID)
	if err != nil || subject == nil {
		s.log.Error("Certificate subject missing", "hash", hash, "subject_id", cert.SubjectID, "error", err)
		return &VerificationReport{}
	}

	valid := signing.Verify(cert.Signature, cert.Hash, cert.UserID, cert.SubjectID, cert.Score, s.secret)
	if !valid {
		s.log.Warn("Certificate signature mismatch", "hash", hash)
	}
	score := cert.Score
	issued := cert.IssueDate.UTC()
	return &VerificationReport{
		Found:           true,
		ValidSignature:  valid,
		Hash:            cert.Hash,
		SubjectKind:     cert.Kind,
		LearnerName:     learner.FullName(),
		AssessableTitle: subject.Title,
		Score:           &score,
		IssueDate:       &issued,
	}
}

// lookup consults the locator cache for the table to read, then reads both
// tables. A stale cache entry only costs the extra query.
func (s *verificationService) lookup(ctx context.Context, hash string) (*types.Certificate, error) {
	dbc := dbctx.Context{Ctx: ctx}
	order := searchOrder
	if kind, ok, err := s.locator.GetKind(ctx, hash); err != nil {
		s.log.Warn("Verification cache read failed", "hash", hash, "error", err)
	} else if ok {
		order = append([]types.SubjectKind{kind}, otherKinds(kind)...)
	}
	for _, kind := range order {
		cert, err := s.certificates.GetByHash(dbc, kind, hash)
		if err != nil {
			return nil, err
		}
		if cert != nil {
			if err := s.locator.SetKind(ctx, hash, kind); err != nil {
				s.log.Warn("Verification cache write failed", "hash", hash, "error", err)
			}
			return cert, nil
		}
	}
	return nil, nil
}

func otherKinds(kind types.SubjectKind) []types.SubjectKind {
	out := make([]types.SubjectKind, 0, len(searchOrder))
	for _, k := range searchOrder {
		if k != kind {
			out = append(out, k)
		}
	}
	return out
}
