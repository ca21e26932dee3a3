package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

func TestNopVerificationCacheNeverHits(t *testing.T) {
	c, err := NewVerificationCache(logger.Nop(), "  ", time.Minute)
	if err != nil {
		t.Fatalf("NewVerificationCache: %v", err)
	}
	if err := c.SetKind(context.Background(), "ABC", types.SubjectCourse); err != nil {
		t.Fatalf("SetKind: %v", err)
	}
	if _, ok, err := c.GetKind(context.Background(), "ABC"); ok || err != nil {
		t.Fatalf("GetKind: want=miss got ok=%v err=%v", ok, err)
	}
}

func TestNewVerificationCacheRequiresLogger(t *testing.T) {
	if _, err := NewVerificationCache(nil, "", 0); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestVerificationCache_RedisIntegration(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration test")
	}
	c, err := NewVerificationCache(logger.Nop(), addr, time.Minute)
	if err != nil {
		t.Fatalf("NewVerificationCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	hash := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	if _, ok, err := c.GetKind(ctx, hash); ok || err != nil {
		t.Fatalf("GetKind before set: want=miss got ok=%v err=%v", ok, err)
	}
	if err := c.SetKind(ctx, hash, types.SubjectTraining); err != nil {
		t.Fatalf("SetKind: %v", err)
	}
	kind, ok, err := c.GetKind(ctx, hash)
	if err != nil || !ok || kind != types.SubjectTraining {
		t.Fatalf("GetKind: want=%s got=%s ok=%v err=%v", types.SubjectTraining, kind, ok, err)
	}
}
