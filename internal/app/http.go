package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/learnproof-backend/internal/http"
	httpH "github.com/yungbote/learnproof-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learnproof-backend/internal/http/middleware"
	"github.com/yungbote/learnproof-backend/internal/observability"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const serviceName = "learnproof"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Verification *httpH.VerificationHandler
	Assessment   *httpH.AssessmentHandler
	Progress     *httpH.ProgressHandler
	Certificate  *httpH.CertificateHandler
	Template     *httpH.TemplateHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Verification: httpH.NewVerificationHandler(log, services.Verification),
		Assessment:   httpH.NewAssessmentHandler(log, services.Grading),
		Progress:     httpH.NewProgressHandler(log, services.Progress),
		Certificate:  httpH.NewCertificateHandler(log, services.Issuer, services.Certificates),
		Template:     httpH.NewTemplateHandler(log, services.Templates),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	name := ""
	if cfg.OtelEnabled {
		name = serviceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                 log,
		ServiceName:         name,
		CORSOrigins:         cfg.CORSOrigins,
		Metrics:             metrics,
		AuthMiddleware:      middleware.Auth,
		VerificationHandler: handlers.Verification,
		AssessmentHandler:   handlers.Assessment,
		ProgressHandler:     handlers.Progress,
		CertificateHandler:  handlers.Certificate,
		TemplateHandler:     handlers.Template,
		HealthHandler:       handlers.Health,
	})
}
