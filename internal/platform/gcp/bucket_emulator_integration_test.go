package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

func TestBucketServiceEmulatorCertificateLifecycle(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("LP_RUN_GCS_EMULATOR_INTEGRATION")), "true") {
		t.Skip("set LP_RUN_GCS_EMULATOR_INTEGRATION=true to run emulator integration tests")
	}

	emulatorHost := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST"))
	if emulatorHost == "" {
		emulatorHost = "http://127.0.0.1:4443"
	}
	emulatorHost = strings.TrimRight(emulatorHost, "/")
	if !isEmulatorReachable(t, emulatorHost) {
		t.Skipf("storage emulator not reachable at %s", emulatorHost)
	}

	suffix := time.Now().UnixNano()
	certBucket := fmt.Sprintf("lp-it-certificates-%d", suffix)
	tplBucket := fmt.Sprintf("lp-it-templates-%d", suffix)
	createBucketIfMissing(t, emulatorHost, certBucket)
	createBucketIfMissing(t, emulatorHost, tplBucket)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	defer log.Sync()

	bucket, err := NewBucketService(log, BucketOptions{
		Storage: ObjectStorageConfig{
			Mode:         ObjectStorageModeGCSEmulator,
			EmulatorHost: emulatorHost,
		},
		PublicBaseURL: emulatorHost,
		Certificates:  BucketConfig{Name: certBucket},
		Templates:     BucketConfig{Name: tplBucket},
	})
	if err != nil {
		t.Fatalf("NewBucketService: %v", err)
	}

	ctx := context.Background()
	key := fmt.Sprintf("certificates/%d_it_0123456789ABCDEF.pdf", suffix)
	if err := bucket.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryCertificate, key, strings.NewReader("%PDF-it")); err != nil {
		t.Fatalf("UploadFile(%s): %v", key, err)
	}

	body, err := downloadWithRetry(ctx, bucket, BucketCategoryCertificate, key, 5*time.Second)
	if err != nil {
		t.Fatalf("downloadWithRetry(%s): %v", key, err)
	}
	if string(body) != "%PDF-it" {
		t.Fatalf("download body: want=%q got=%q", "%PDF-it", string(body))
	}

	publicURL := bucket.GetPublicURL(BucketCategoryCertificate, key)
	if got, ok := bucket.KeyFromPublicURL(BucketCategoryCertificate, publicURL); !ok || got != key {
		t.Fatalf("KeyFromPublicURL(%s): want=%q got=%q", publicURL, key, got)
	}

	if err := bucket.DeleteFile(dbctx.Context{Ctx: ctx}, BucketCategoryCertificate, key); err != nil {
		t.Fatalf("DeleteFile(%s): %v", key, err)
	}
	if rc, err := bucket.DownloadFile(ctx, BucketCategoryCertificate, key); err == nil {
		_ = rc.Close()
		t.Fatalf("expected download of deleted object to fail")
	}
}

func isEmulatorReachable(t *testing.T, emulatorHost string) bool {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(emulatorHost + "/storage/v1/b?project=local-dev")
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func createBucketIfMissing(t *testing.T, emulatorHost string, bucket string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"name": bucket})
	if err != nil {
		t.Fatalf("json.Marshal(bucket): %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(
		http.MethodPost,
		emulatorHost+"/storage/v1/b?project=local-dev",
		bytes.NewReader(payload),
	)
	if err != nil {
		t.Fatalf("http.NewRequest(create bucket): %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("create bucket %q: %v", bucket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return
	}
	b, _ := io.ReadAll(resp.Body)
	t.Fatalf("create bucket %q failed: status=%d body=%s", bucket, resp.StatusCode, strings.TrimSpace(string(b)))
}

func downloadWithRetry(
	ctx context.Context,
	bucket BucketService,
	category BucketCategory,
	key string,
	timeout time.Duration,
) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		rc, err := bucket.DownloadFile(ctx, category, key)
		if err == nil {
			body, readErr := io.ReadAll(rc)
			_ = rc.Close()
			if readErr == nil {
				return body, nil
			}
			lastErr = readErr
		} else {
			lastErr = err
		}
		if time.Now().After(deadline) {
			return nil, lastErr
		}
		time.Sleep(100 * time.Millisecond)
	}
}
