package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

type CertificateService interface {
	// ListForLearner merges course and training certificates, newest first.
	ListForLearner(ctx context.Context, userID uuid.UUID) ([]*types.Certificate, error)
}

type certificateService struct {
	log          *logger.Logger
	certificates repos.CertificateRepo
}

func NewCertificateService(baseLog *logger.Logger, certificates repos.CertificateRepo) CertificateService {
	return &certificateService{
		log:          baseLog.With("service", "CertificateService"),
		certificates: certificates,
	}
}

func (s *certificateService) ListForLearner(ctx context.Context, userID uuid.UUID) ([]*types.Certificate, error) {
	rows, err := s.certificates.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apperr.Storage("certificates.ListForLearner", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].IssueDate.After(rows[j].IssueDate)
	})
	return rows, nil
}
