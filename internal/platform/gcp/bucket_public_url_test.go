package gcp

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

func TestResolveObjectStoragePublicBaseURL(t *testing.T) {
	cases := []struct {
		name       string
		cfg        ObjectStorageConfig
		override   string
		wantURL    string
		wantSource string
		wantErr    bool
	}{
		{name: "gcs default", cfg: ObjectStorageConfig{Mode: ObjectStorageModeGCS}, wantSource: "gcs_default"},
		{
			name:       "emulator fallback",
			cfg:        ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
			wantURL:    "http://fake-gcs:4443",
			wantSource: "storage_emulator_host",
		},
		{
			name:       "override wins",
			cfg:        ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
			override:   "http://localhost:4443/",
			wantURL:    "http://localhost:4443",
			wantSource: "object_storage_public_base_url",
		},
		{name: "invalid override", cfg: ObjectStorageConfig{Mode: ObjectStorageModeGCS}, override: "localhost:4443", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, source, err := resolveObjectStoragePublicBaseURL(tc.cfg, tc.override)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
			}
			if got != tc.wantURL || source != tc.wantSource {
				t.Fatalf("want=(%q,%q) got=(%q,%q)", tc.wantURL, tc.wantSource, got, source)
			}
		})
	}
}

func TestGetPublicURLAndBack(t *testing.T) {
	cases := []struct {
		name string
		bs   *bucketService
		key  string
		want string
	}{
		{
			name: "gcs default",
			bs:   &bucketService{certificateBucket: BucketConfig{Name: "cert-bucket"}},
			key:  "certificates/1700000000000_ada_lovelace_0123456789ABCDEF.pdf",
			want: "https://storage.googleapis.com/cert-bucket/certificates/1700000000000_ada_lovelace_0123456789ABCDEF.pdf",
		},
		{
			name: "cdn domain",
			bs:   &bucketService{certificateBucket: BucketConfig{Name: "cert-bucket", CDNDomain: "cdn.example.com"}},
			key:  "certificates/a.pdf",
			want: "https://cdn.example.com/certificates/a.pdf",
		},
		{
			name: "public base url",
			bs:   &bucketService{publicBaseURL: "http://localhost:4443", certificateBucket: BucketConfig{Name: "cert-bucket"}},
			key:  "certificates/a.pdf",
			want: "http://localhost:4443/cert-bucket/certificates/a.pdf",
		},
		{
			name: "emulator media endpoint",
			bs: &bucketService{
				storageMode:       ObjectStorageModeGCSEmulator,
				emulatorHost:      "http://fake-gcs:4443",
				certificateBucket: BucketConfig{Name: "cert-bucket"},
			},
			key:  "certificates/a.pdf",
			want: "http://fake-gcs:4443/storage/v1/b/cert-bucket/o/certificates%2Fa.pdf?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.bs.GetPublicURL(BucketCategoryCertificate, tc.key)
			if got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
			key, ok := tc.bs.KeyFromPublicURL(BucketCategoryCertificate, got)
			if !ok || key != tc.key {
				t.Fatalf("KeyFromPublicURL: want=%q got=%q ok=%v", tc.key, key, ok)
			}
		})
	}
}

func TestKeyFromPublicURLRejectsForeignBucket(t *testing.T) {
	bs := &bucketService{
		certificateBucket: BucketConfig{Name: "cert-bucket"},
		templateBucket:    BucketConfig{Name: "template-bucket"},
	}
	url := bs.GetPublicURL(BucketCategoryTemplate, "templates/t.docx")
	if _, ok := bs.KeyFromPublicURL(BucketCategoryCertificate, url); ok {
		t.Fatalf("template URL should not resolve in the certificate bucket")
	}
	if key, ok := bs.KeyFromPublicURL(BucketCategoryTemplate, url); !ok || key != "templates/t.docx" {
		t.Fatalf("KeyFromPublicURL: got=%q ok=%v", key, ok)
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := contentTypeForKey("certificates/a.PDF"); got != "application/pdf" {
		t.Fatalf("pdf: got=%q", got)
	}
	if got := contentTypeForKey("templates/a.docx"); got == "" {
		t.Fatalf("docx: expected a content type")
	}
	if got := contentTypeForKey("misc/a.bin"); got != "" {
		t.Fatalf("unknown: got=%q", got)
	}
}

func TestWithStatusExposesHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"googleapi":    {fmt.Errorf("close: %w", &googleapi.Error{Code: http.StatusServiceUnavailable}), http.StatusServiceUnavailable},
		"not exist":    {storage.ErrObjectNotExist, http.StatusNotFound},
		"unclassified": {errors.New("boom"), 0},
	}
	for name, tc := range cases {
		err := withStatus(tc.err)
		var se *StatusError
		got := 0
		if errors.As(err, &se) {
			got = se.HTTPStatusCode()
		}
		if got != tc.want {
			t.Fatalf("%s: status want=%d got=%d", name, tc.want, got)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: cause lost", name)
		}
	}
}
