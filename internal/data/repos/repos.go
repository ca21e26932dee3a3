package repos

import (
	"github.com/yungbote/learnproof-backend/internal/data/repos/catalog"
	"github.com/yungbote/learnproof-backend/internal/data/repos/certificates"
	"github.com/yungbote/learnproof-backend/internal/data/repos/learning"
	"github.com/yungbote/learnproof-backend/internal/data/repos/user"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type SubjectRepo = catalog.SubjectRepo

type EnrollmentRepo = learning.EnrollmentRepo
type LessonRepo = learning.LessonRepo
type LessonProgressRepo = learning.LessonProgressRepo
type AssessmentRepo = learning.AssessmentRepo
type AttemptRepo = learning.AttemptRepo

type CertificateRepo = certificates.CertificateRepo
type TemplateRepo = certificates.TemplateRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return catalog.NewSubjectRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, baseLog)
}
func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return learning.NewAssessmentRepo(db, baseLog)
}
func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return learning.NewAttemptRepo(db, baseLog)
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return certificates.NewCertificateRepo(db, baseLog)
}
func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return certificates.NewTemplateRepo(db, baseLog)
}
