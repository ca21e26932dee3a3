package certificates

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// CertificateRepo hides the course/training table split behind the
// kind-agnostic Certificate view.
type CertificateRepo interface {
	// GetByPair returns nil without error when no certificate exists yet.
	GetByPair(dbc dbctx.Context, kind types.SubjectKind, userID, subjectID uuid.UUID) (*types.Certificate, error)
	GetByHash(dbc dbctx.Context, kind types.SubjectKind, hash string) (*types.Certificate, error)
	// Create returns the raw driver error so callers can detect unique
	// violations on the (user, subject) pair.
	Create(dbc dbctx.Context, cert *types.Certificate) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	repoLog := baseLog.With("repo", "CertificateRepo")
	return &certificateRepo{db: db, log: repoLog}
}

func (r *certificateRepo) GetByPair(dbc dbctx.Context, kind types.SubjectKind, userID, subjectID uuid.UUID) (*types.Certificate, error) {
	if userID == uuid.Nil || subjectID == uuid.Nil {
		return nil, nil
	}
	switch kind {
	case types.SubjectCourse:
		var row types.CourseCertificate
		err := dbc.Conn(r.db).Where("user_id = ? AND course_id = ?", userID, subjectID).First(&row).Error
		if err != nil {
			return nil, notFoundAsNil(err)
		}
		return types.CertificateFromCourse(&row), nil
	case types.SubjectTraining:
		var row types.TrainingCertificate
		err := dbc.Conn(r.db).Where("user_id = ? AND training_id = ?", userID, subjectID).First(&row).Error
		if err != nil {
			return nil, notFoundAsNil(err)
		}
		return types.CertificateFromTraining(&row), nil
	default:
		return nil, fmt.Errorf("unknown subject kind %q", kind)
	}
}

func (r *certificateRepo) GetByHash(dbc dbctx.Context, kind types.SubjectKind, hash string) (*types.Certificate, error) {
	if hash == "" {
		return nil, nil
	}
	switch kind {
	case types.SubjectCourse:
		var row types.CourseCertificate
		if err := dbc.Conn(r.db).Where("hash = ?", hash).First(&row).Error; err != nil {
			return nil, notFoundAsNil(err)
		}
		return types.CertificateFromCourse(&row), nil
	case types.SubjectTraining:
		var row types.TrainingCertificate
		if err := dbc.Conn(r.db).Where("hash = ?", hash).First(&row).Error; err != nil {
			return nil, notFoundAsNil(err)
		}
		return types.CertificateFromTraining(&row), nil
	default:
		return nil, fmt.Errorf("unknown subject kind %q", kind)
	}
}

func (r *certificateRepo) Create(dbc dbctx.Context, cert *types.Certificate) error {
	if cert == nil {
		return nil
	}
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	switch cert.Kind {
	case types.SubjectCourse:
		return dbc.Conn(r.db).Create(&types.CourseCertificate{
			ID:        cert.ID,
			UserID:    cert.UserID,
			CourseID:  cert.SubjectID,
			Hash:      cert.Hash,
			Signature: cert.Signature,
			Score:     cert.Score,
			PDFURL:    cert.PDFURL,
			IssueDate: cert.IssueDate,
		}).Error
	case types.SubjectTraining:
		return dbc.Conn(r.db).Create(&types.TrainingCertificate{
			ID:         cert.ID,
			UserID:     cert.UserID,
			TrainingID: cert.SubjectID,
			Hash:       cert.Hash,
			Signature:  cert.Signature,
			Score:      cert.Score,
			PDFURL:     cert.PDFURL,
			IssueDate:  cert.IssueDate,
		}).Error
	default:
		return fmt.Errorf("unknown subject kind %q", cert.Kind)
	}
}

func (r *certificateRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error) {
	out := []*types.Certificate{}
	if userID == uuid.Nil {
		return out, nil
	}
	var courses []*types.CourseCertificate
	if err := dbc.Conn(r.db).Where("user_id = ?", userID).Order("issue_date DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	var trainings []*types.TrainingCertificate
	if err := dbc.Conn(r.db).Where("user_id = ?", userID).Order("issue_date DESC").Find(&trainings).Error; err != nil {
		return nil, err
	}
	for _, c := range courses {
		out = append(out, types.CertificateFromCourse(c))
	}
	for _, c := range trainings {
		out = append(out, types.CertificateFromTraining(c))
	}
	return out, nil
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
