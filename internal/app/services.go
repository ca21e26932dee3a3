package app

import (
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/platform/gcp"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	Progress services.ProgressService
	Grading  services.GradingService

	Issuer       services.CertificateIssuer
	Verification services.VerificationService
	Certificates services.CertificateService
	Templates    services.CertificateTemplateService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	certificateBlobs := services.NewBucketBlobStore(log, clients.Bucket, gcp.BucketCategoryCertificate)
	templateBlobs := services.NewBucketBlobStore(log, clients.Bucket, gcp.BucketCategoryTemplate)

	issuer := services.NewCertificateIssuer(log, services.CertificateIssuerConfig{
		Secret:        cfg.CertificateSecret,
		VerifyBaseURL: cfg.VerifyBaseURL,
	}, services.CertificateIssuerDeps{
		DB:               db,
		Users:            repos.User,
		Subjects:         repos.Subject,
		Certificates:     repos.Certificate,
		Templates:        repos.Template,
		Attempts:         repos.Attempt,
		Documents:        render.NewTemplateRenderer(clients.Converter),
		Pages:            render.NewSynthesizedRenderer(clients.Chrome),
		CertificateBlobs: certificateBlobs,
		TemplateBlobs:    templateBlobs,
		Locator:          clients.Locator,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	return Services{
		Auth:         services.NewAuthService(log, cfg.JWTSecretKey),
		Progress:     services.NewProgressService(log, repos.Enrollment, repos.Lesson, repos.LessonProgress),
		Grading:      services.NewGradingService(log, validate, repos.Enrollment, repos.Assessment, repos.Attempt, issuer),
		Issuer:       issuer,
		Verification: services.NewVerificationService(log, cfg.CertificateSecret, repos.Certificate, repos.User, repos.Subject, clients.Locator),
		Certificates: services.NewCertificateService(log, repos.Certificate),
		Templates:    services.NewCertificateTemplateService(db, log, repos.Template, templateBlobs),
	}
}
