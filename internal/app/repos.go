package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/learnproof-backend/internal/data/repos"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

type Repos struct {
	User    repos.UserRepo
	Subject repos.SubjectRepo

	Enrollment     repos.EnrollmentRepo
	Lesson         repos.LessonRepo
	LessonProgress repos.LessonProgressRepo
	Assessment     repos.AssessmentRepo
	Attempt        repos.AttemptRepo

	Certificate repos.CertificateRepo
	Template    repos.TemplateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Subject:        repos.NewSubjectRepo(db, log),
		Enrollment:     repos.NewEnrollmentRepo(db, log),
		Lesson:         repos.NewLessonRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
		Assessment:     repos.NewAssessmentRepo(db, log),
		Attempt:        repos.NewAttemptRepo(db, log),
		Certificate:    repos.NewCertificateRepo(db, log),
		Template:       repos.NewTemplateRepo(db, log),
	}
}
