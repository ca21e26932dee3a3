package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/pkg/httpx"
	"github.com/yungbote/learnproof-backend/internal/platform/gcp"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

// BlobStore is the slice of object storage the certificate pipeline needs.
// Objects are addressed by key on write and by public URL afterwards.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// ErrBlobNotFound is wrapped by Get when the object is not stored.
var ErrBlobNotFound = errors.New("blob not found")

const (
	blobPutAttempts = 3
	blobRetryBase   = 250 * time.Millisecond
)

type bucketBlobStore struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	category gcp.BucketCategory
}

// NewBucketBlobStore adapts one bucket category to BlobStore.
func NewBucketBlobStore(baseLog *logger.Logger, bucket gcp.BucketService, category gcp.BucketCategory) BlobStore {
	return &bucketBlobStore{
		log:      baseLog.With("service", "BlobStore", "category", string(category)),
		bucket:   bucket,
		category: category,
	}
}

func (s *bucketBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil || s.bucket == nil {
		return "", fmt.Errorf("blob store not configured")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("put %s: empty object", key)
	}
	var lastErr error
	for attempt := 1; attempt <= blobPutAttempts; attempt++ {
		lastErr = s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, s.category, key, bytes.NewReader(data))
		if lastErr == nil {
			return s.bucket.GetPublicURL(s.category, key), nil
		}
		if ctx.Err() != nil || !httpx.IsRetryableError(lastErr) || attempt == blobPutAttempts {
			break
		}
		wait := httpx.JitterSleep(blobRetryBase * time.Duration(attempt))
		s.log.Warn("Upload failed; retrying", "key", key, "attempt", attempt, "wait", wait, "error", lastErr)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("put %s: %w", key, lastErr)
}

func (s *bucketBlobStore) Get(ctx context.Context, url string) ([]byte, error) {
	if s == nil || s.bucket == nil {
		return nil, fmt.Errorf("blob store not configured")
	}
	key, ok := s.bucket.KeyFromPublicURL(s.category, url)
	if !ok {
		return nil, fmt.Errorf("get: url does not belong to the %s bucket: %w", s.category, ErrBlobNotFound)
	}
	rc, err := s.bucket.DownloadFile(ctx, s.category, key)
	if err != nil {
		var sc httpx.HTTPStatusCoder
		if errors.As(err, &sc) && sc.HTTPStatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("get %s: %w: %w", key, ErrBlobNotFound, err)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *bucketBlobStore) Delete(ctx context.Context, url string) error {
	if s == nil || s.bucket == nil {
		return fmt.Errorf("blob store not configured")
	}
	key, ok := s.bucket.KeyFromPublicURL(s.category, url)
	if !ok {
		return fmt.Errorf("delete: url does not belong to the %s bucket", s.category)
	}
	if err := s.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, s.category, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
