package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryCertificate BucketCategory = "certificate"
	BucketCategoryTemplate    BucketCategory = "template"
)

type BucketConfig struct {
	Name      string
	CDNDomain string
}

type BucketOptions struct {
	Storage ObjectStorageConfig
	// PublicBaseURL overrides the host used in public object URLs.
	PublicBaseURL string
	Certificates  BucketConfig
	Templates     BucketConfig
	// Credentials is either inline service-account JSON or a file path.
	Credentials string
}

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetPublicURL(category BucketCategory, key string) string
	// KeyFromPublicURL inverts GetPublicURL.
	KeyFromPublicURL(category BucketCategory, publicURL string) (string, bool)
}

type bucketService struct {
	log               *logger.Logger
	storageClient     *storage.Client
	storageMode       ObjectStorageMode
	emulatorHost      string
	certificateBucket BucketConfig
	templateBucket    BucketConfig
	publicBaseURL     string
}

func NewBucketService(log *logger.Logger, opts BucketOptions) (BucketService, error) {
	if err := ValidateObjectStorageConfig(opts.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	if strings.TrimSpace(opts.Certificates.Name) == "" {
		return nil, fmt.Errorf("missing certificate bucket name (CERTIFICATE_GCS_BUCKET_NAME)")
	}
	if strings.TrimSpace(opts.Templates.Name) == "" {
		opts.Templates.Name = opts.Certificates.Name
	}

	publicBaseURL, publicBaseSource, err := resolveObjectStoragePublicBaseURL(opts.Storage, opts.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	stClient, err := newStorageClientForMode(ctx, opts.Storage, opts.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", opts.Storage.Mode,
		"mode_source", opts.Storage.ModeSource(),
		"emulator_host", opts.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"certificate_bucket", opts.Certificates.Name,
		"template_bucket", opts.Templates.Name,
	)

	return &bucketService{
		log:               serviceLog,
		storageClient:     stClient,
		storageMode:       opts.Storage.Mode,
		emulatorHost:      strings.TrimRight(strings.TrimSpace(opts.Storage.EmulatorHost), "/"),
		certificateBucket: opts.Certificates,
		templateBucket:    opts.Templates,
		publicBaseURL:     publicBaseURL,
	}, nil
}

func clientOptions(credentials string) []option.ClientOption {
	creds := strings.TrimSpace(credentials)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig, credentials string) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := clientOptions(credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		// the storage client only honours the emulator through this variable
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(storageCfg.Mode),
		}
	}
}

func resolveObjectStoragePublicBaseURL(storageCfg ObjectStorageConfig, override string) (baseURL string, source string, err error) {
	raw := strings.TrimSpace(override)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf(
				"invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443",
				raw,
			)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}

	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}

	return "", "gcs_default", nil
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (BucketConfig, error) {
	switch category {
	case BucketCategoryCertificate:
		return bs.certificateBucket, nil
	case BucketCategoryTemplate:
		return bs.templateBucket, nil
	default:
		return BucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.Name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", withStatus(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", withStatus(err))
	}
	return nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	o := bs.storageClient.Bucket(cfg.Name).Object(key)
	if err := o.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.Name, withStatus(err))
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.publicEmulatorObjectMediaURL(cfg.Name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Name, key)
}

func (bs *bucketService) KeyFromPublicURL(category BucketCategory, publicURL string) (string, bool) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return "", false
	}
	raw := strings.TrimSpace(publicURL)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// bare keys are accepted as-is
		return strings.TrimLeft(raw, "/"), !strings.Contains(raw, "://")
	}

	// emulator media endpoint: /storage/v1/b/<bucket>/o/<escaped key>
	mediaPrefix := "/storage/v1/b/" + cfg.Name + "/o/"
	if strings.HasPrefix(u.Path, mediaPrefix) {
		key := strings.TrimPrefix(u.Path, mediaPrefix)
		return key, key != ""
	}
	if cfg.CDNDomain != "" && strings.EqualFold(u.Host, cfg.CDNDomain) {
		key := strings.TrimLeft(u.Path, "/")
		return key, key != ""
	}
	bucketPrefix := "/" + cfg.Name + "/"
	if strings.HasPrefix(u.Path, bucketPrefix) {
		key := strings.TrimPrefix(u.Path, bucketPrefix)
		return key, key != ""
	}
	return "", false
}

func (bs *bucketService) publicEmulatorObjectMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

// readCloserWithCancel ties the download context to the reader's lifetime;
// cancelling before the caller finishes reading truncates the body.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) isEmulatorMode() bool {
	return bs != nil && bs.storageMode == ObjectStorageModeGCSEmulator && strings.TrimSpace(bs.emulatorHost) != ""
}

func (bs *bucketService) emulatorObjectMediaURL(bucket, key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/"),
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	if bs.isEmulatorMode() {
		ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, bs.emulatorObjectMediaURL(cfg.Name, key), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, &StatusError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))),
			}
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := bs.storageClient.Bucket(cfg.Name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", withStatus(err))
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// StatusError exposes the HTTP status of a failed GCS call so callers can
// decide whether to retry without importing googleapi.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string       { return e.Err.Error() }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.Status }

func withStatus(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &StatusError{Status: apiErr.Code, Err: err}
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return &StatusError{Status: http.StatusNotFound, Err: err}
	}
	return err
}
