package app

import (
	"context"
	"fmt"

	redisclient "github.com/yungbote/learnproof-backend/internal/clients/redis"
	"github.com/yungbote/learnproof-backend/internal/platform/browser"
	"github.com/yungbote/learnproof-backend/internal/platform/gcp"
	"github.com/yungbote/learnproof-backend/internal/platform/localmedia"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

type Clients struct {
	Bucket    gcp.BucketService
	Locator   redisclient.VerificationCache
	Converter *localmedia.OfficeConverter
	Chrome    *browser.ChromeRenderer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	// Redis
	locator, err := redisclient.NewVerificationCache(log, cfg.RedisAddr, cfg.VerifyCacheTTL)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis verification cache: %w", err)
	}

	// LibreOffice
	converter := localmedia.NewOfficeConverter(log, localmedia.OfficeConverterOptions{
		SofficePath: cfg.SofficePath,
		WorkRoot:    cfg.CertificateWorkDir,
		Timeout:     cfg.ConverterTimeout,
	})
	if err := converter.AssertReady(ctx); err != nil {
		// only template-based issuance needs soffice
		log.Warn("DOCX converter unavailable; template certificates will fail", "error", err)
	}

	// Headless chrome, started lazily on first print
	chrome := browser.NewChromeRenderer(log, browser.ChromeOptions{
		ExecPath: cfg.ChromePath,
		Timeout:  cfg.BrowserTimeout,
	})

	return Clients{
		Bucket:    bucket,
		Locator:   locator,
		Converter: converter,
		Chrome:    chrome,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Locator != nil {
		_ = c.Locator.Close()
	}
	if c.Chrome != nil {
		c.Chrome.Close()
	}
}
