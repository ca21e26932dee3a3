package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dbpkg "github.com/yungbote/learnproof-backend/internal/data/db"
	"github.com/yungbote/learnproof-backend/internal/platform/envutil"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

// Config is read from an optional YAML file (CONFIG_FILE) and then the
// environment; environment values win.
type Config struct {
	Environment string   `yaml:"environment"`
	HTTPAddr    string   `yaml:"http_addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LogMode     string   `yaml:"log_mode"`
	CORSOrigins []string `yaml:"cors_origins"`

	Postgres dbpkg.PostgresConfig `yaml:"postgres"`

	JWTSecretKey      string `yaml:"jwt_secret_key"`
	CertificateSecret string `yaml:"certificate_secret"`
	VerifyBaseURL     string `yaml:"public_verify_base_url"`

	ConverterTimeout   time.Duration `yaml:"converter_timeout"`
	BrowserTimeout     time.Duration `yaml:"browser_timeout"`
	SofficePath        string        `yaml:"soffice_path"`
	ChromePath         string        `yaml:"chrome_path"`
	CertificateWorkDir string        `yaml:"certificate_work_dir"`
	ReaperSchedule     string        `yaml:"work_dir_reaper_schedule"`
	ReaperRetention    time.Duration `yaml:"work_dir_reaper_retention"`

	ObjectStorageMode          string `yaml:"object_storage_mode"`
	StorageEmulatorHost        string `yaml:"storage_emulator_host"`
	StorageModeCompatFallback  bool   `yaml:"-"`
	ObjectStoragePublicBaseURL string `yaml:"object_storage_public_base_url"`
	CertificateBucket          string `yaml:"certificate_gcs_bucket_name"`
	TemplateBucket             string `yaml:"template_gcs_bucket_name"`
	CertificateCDNDomain       string `yaml:"certificate_cdn_domain"`
	GCPCredentials             string `yaml:"-"`

	RedisAddr      string        `yaml:"redis_addr"`
	VerifyCacheTTL time.Duration `yaml:"verify_cache_ttl"`

	OtelEnabled bool `yaml:"otel_enabled"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var ErrMissingCertificateSecret = errors.New("CERTIFICATE_SECRET is required in production")

const devCertificateSecret = "dev-certificate-secret"

func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not read .env", "error", err)
	}

	var file Config
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg := Config{
		Environment: envutil.String("APP_ENV", or(file.Environment, "development")),
		HTTPAddr:    envutil.String("HTTP_ADDR", or(file.HTTPAddr, ":8080")),
		MetricsAddr: envutil.String("METRICS_ADDR", file.MetricsAddr),
		LogMode:     envutil.String("LOG_MODE", or(file.LogMode, "development")),
		CORSOrigins: file.CORSOrigins,

		Postgres: dbpkg.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", or(file.Postgres.Host, "localhost")),
			Port:     envutil.String("POSTGRES_PORT", or(file.Postgres.Port, "5432")),
			User:     envutil.String("POSTGRES_USER", file.Postgres.User),
			Password: envutil.String("POSTGRES_PASSWORD", file.Postgres.Password),
			Name:     envutil.String("POSTGRES_NAME", file.Postgres.Name),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", file.Postgres.SSLMode),
		},

		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", file.JWTSecretKey),
		CertificateSecret: envutil.String("CERTIFICATE_SECRET", file.CertificateSecret),
		VerifyBaseURL:     envutil.String("PUBLIC_VERIFY_BASE_URL", or(file.VerifyBaseURL, "http://localhost:8080")),

		ConverterTimeout:   envutil.Duration("CONVERTER_TIMEOUT", orDuration(file.ConverterTimeout, 30*time.Second)),
		BrowserTimeout:     envutil.Duration("BROWSER_TIMEOUT", orDuration(file.BrowserTimeout, 30*time.Second)),
		SofficePath:        envutil.String("SOFFICE_PATH", or(file.SofficePath, "soffice")),
		ChromePath:         envutil.String("CHROME_PATH", file.ChromePath),
		CertificateWorkDir: envutil.String("CERTIFICATE_WORK_DIR", file.CertificateWorkDir),
		ReaperSchedule:     envutil.String("WORK_DIR_REAPER_SCHEDULE", or(file.ReaperSchedule, "*/30 * * * *")),
		ReaperRetention:    envutil.Duration("WORK_DIR_REAPER_RETENTION", orDuration(file.ReaperRetention, time.Hour)),

		ObjectStorageMode:          envutil.String("OBJECT_STORAGE_MODE", file.ObjectStorageMode),
		StorageEmulatorHost:        envutil.String("STORAGE_EMULATOR_HOST", file.StorageEmulatorHost),
		ObjectStoragePublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", file.ObjectStoragePublicBaseURL),
		CertificateBucket:          envutil.String("CERTIFICATE_GCS_BUCKET_NAME", file.CertificateBucket),
		TemplateBucket:             envutil.String("TEMPLATE_GCS_BUCKET_NAME", file.TemplateBucket),
		CertificateCDNDomain:       envutil.String("CERTIFICATE_CDN_DOMAIN", file.CertificateCDNDomain),
		GCPCredentials:             envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")),

		RedisAddr:      envutil.String("REDIS_ADDR", file.RedisAddr),
		VerifyCacheTTL: envutil.Duration("VERIFY_CACHE_TTL", orDuration(file.VerifyCacheTTL, 24*time.Hour)),

		OtelEnabled: envutil.Bool("OTEL_ENABLED", file.OtelEnabled),
	}
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.CertificateSecret == "" {
		if cfg.IsProduction() {
			return Config{}, ErrMissingCertificateSecret
		}
		log.Warn("CERTIFICATE_SECRET not set; using the development secret")
		cfg.CertificateSecret = devCertificateSecret
	}
	if cfg.JWTSecretKey == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SECRET_KEY is required in production")
		}
		cfg.JWTSecretKey = "defaultsecret"
	}
	return cfg, nil
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
