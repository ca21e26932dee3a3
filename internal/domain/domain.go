package domain

import (
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"github.com/yungbote/learnproof-backend/internal/domain/certificates"
	"github.com/yungbote/learnproof-backend/internal/domain/learning"
	"github.com/yungbote/learnproof-backend/internal/domain/user"
)

type User = user.User

type SubjectKind = catalog.SubjectKind
type Subject = catalog.Subject
type Organization = catalog.Organization
type Course = catalog.Course
type Training = catalog.Training

type Enrollment = learning.Enrollment
type EnrollmentStatus = learning.EnrollmentStatus
type Lesson = learning.Lesson
type LessonProgress = learning.LessonProgress
type Assessment = learning.Assessment
type AssessmentKind = learning.AssessmentKind
type Question = learning.Question
type AnswerOption = learning.AnswerOption
type Attempt = learning.Attempt

type CourseCertificate = certificates.CourseCertificate
type TrainingCertificate = certificates.TrainingCertificate
type Certificate = certificates.Certificate
type CertificateTemplate = certificates.Template

var (
	CertificateFromCourse   = certificates.FromCourse
	CertificateFromTraining = certificates.FromTraining
)

const (
	SubjectCourse   = catalog.SubjectCourse
	SubjectTraining = catalog.SubjectTraining

	EnrollmentPending  = learning.EnrollmentPending
	EnrollmentApproved = learning.EnrollmentApproved
	EnrollmentRejected = learning.EnrollmentRejected

	AssessmentQuiz = learning.AssessmentQuiz
	AssessmentExam = learning.AssessmentExam
)

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Organization{},
		&Course{},
		&Training{},
		&Enrollment{},
		&Lesson{},
		&LessonProgress{},
		&Assessment{},
		&Question{},
		&AnswerOption{},
		&Attempt{},
		&CourseCertificate{},
		&TrainingCertificate{},
		&CertificateTemplate{},
	}
}
