package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learnproof-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learnproof-backend/internal/http/middleware"
	"github.com/yungbote/learnproof-backend/internal/observability"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	VerificationHandler *httpH.VerificationHandler
	AssessmentHandler   *httpH.AssessmentHandler
	ProgressHandler     *httpH.ProgressHandler
	CertificateHandler  *httpH.CertificateHandler
	TemplateHandler     *httpH.TemplateHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	// Verification (public)
	if cfg.VerificationHandler != nil {
		r.GET("/verify/:hash", cfg.VerificationHandler.Verify)
	}

	api := r.Group("/api")
	if cfg.VerificationHandler != nil {
		api.GET("/verify/:hash", cfg.VerificationHandler.Verify)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.AssessmentHandler != nil {
			protected.POST("/assessments/:id/submissions", cfg.AssessmentHandler.Submit)
			protected.GET("/assessments/:id/standing", cfg.AssessmentHandler.Standing)
		}

		if cfg.ProgressHandler != nil {
			protected.POST("/lessons/:id/complete", cfg.ProgressHandler.CompleteLesson)
			protected.GET("/progress/:kind/:id", cfg.ProgressHandler.GetProgress)
		}

		if cfg.CertificateHandler != nil {
			protected.POST("/certificates/issue", cfg.CertificateHandler.Issue)
			protected.GET("/me/certificates", cfg.CertificateHandler.ListMine)
		}
	}

	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	if cfg.TemplateHandler != nil {
		admin.POST("/certificate-templates", cfg.TemplateHandler.Upload)
		admin.GET("/certificate-templates", cfg.TemplateHandler.List)
		admin.DELETE("/certificate-templates/:id", cfg.TemplateHandler.Delete)
	}

	return r
}
