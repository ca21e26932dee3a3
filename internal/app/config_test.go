package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"CONFIG_FILE", "APP_ENV", "CERTIFICATE_SECRET", "HTTP_ADDR", "CONVERTER_TIMEOUT", "VERIFY_CACHE_TTL", "WORK_DIR_REAPER_SCHEDULE", "WORK_DIR_REAPER_RETENTION"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr: want=:8080 got=%q", cfg.HTTPAddr)
	}
	if cfg.ConverterTimeout != 30*time.Second || cfg.VerifyCacheTTL != 24*time.Hour {
		t.Fatalf("durations: converter=%v ttl=%v", cfg.ConverterTimeout, cfg.VerifyCacheTTL)
	}
	if cfg.ReaperSchedule != "*/30 * * * *" || cfg.ReaperRetention != time.Hour {
		t.Fatalf("reaper: schedule=%q retention=%v", cfg.ReaperSchedule, cfg.ReaperRetention)
	}
	if cfg.CertificateSecret != devCertificateSecret {
		t.Fatalf("secret: want dev fallback got=%q", cfg.CertificateSecret)
	}
}

func TestLoadConfig_ProductionRequiresCertificateSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CERTIFICATE_SECRET", "")
	t.Setenv("JWT_SECRET_KEY", "jwt")

	_, err := LoadConfig(testLogger(t))
	if !errors.Is(err, ErrMissingCertificateSecret) {
		t.Fatalf("want ErrMissingCertificateSecret got=%v", err)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learnproof.yaml")
	body := []byte(`
environment: production
http_addr: ":9000"
certificate_secret: from-file
converter_timeout: 45s
cors_origins: ["https://app.learnproof.io"]
postgres:
  host: db.internal
  name: learnproof
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_ENV", "")
	t.Setenv("CERTIFICATE_SECRET", "")
	t.Setenv("JWT_SECRET_KEY", "jwt")
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("CONVERTER_TIMEOUT", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_NAME", "")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("environment: want production got=%q", cfg.Environment)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Fatalf("env should win: got=%q", cfg.HTTPAddr)
	}
	if cfg.CertificateSecret != "from-file" || cfg.ConverterTimeout != 45*time.Second {
		t.Fatalf("file values: secret=%q timeout=%v", cfg.CertificateSecret, cfg.ConverterTimeout)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Name != "learnproof" || cfg.Postgres.Port != "5432" {
		t.Fatalf("postgres: got=%+v", cfg.Postgres)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.learnproof.io" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
}
