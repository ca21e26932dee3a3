package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const verificationKeyPrefix = "certverify:"

// VerificationCache remembers which certificate table a hash lives in. It
// never stores the certificate itself, so verification always re-reads and
// re-checks the current row.
type VerificationCache interface {
	GetKind(ctx context.Context, hash string) (types.SubjectKind, bool, error)
	SetKind(ctx context.Context, hash string, kind types.SubjectKind) error
	Close() error
}

type verificationCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewVerificationCache connects to addr and pings it. An empty addr yields a
// cache that never hits.
func NewVerificationCache(log *logger.Logger, addr string, ttl time.Duration) (VerificationCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		log.Info("REDIS_ADDR not set; verification cache disabled")
		return NopVerificationCache(), nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &verificationCache{
		log: log.With("service", "RedisVerificationCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *verificationCache) GetKind(ctx context.Context, hash string) (types.SubjectKind, bool, error) {
	v, err := c.rdb.Get(ctx, verificationKeyPrefix+hash).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	kind := types.SubjectKind(v)
	if !kind.Valid() {
		// stale or foreign value; drop it and fall through to the tables
		_ = c.rdb.Del(ctx, verificationKeyPrefix+hash).Err()
		return "", false, nil
	}
	return kind, true, nil
}

func (c *verificationCache) SetKind(ctx context.Context, hash string, kind types.SubjectKind) error {
	if err := c.rdb.Set(ctx, verificationKeyPrefix+hash, string(kind), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *verificationCache) Close() error {
	return c.rdb.Close()
}

type nopVerificationCache struct{}

func NopVerificationCache() VerificationCache { return nopVerificationCache{} }

func (nopVerificationCache) GetKind(context.Context, string) (types.SubjectKind, bool, error) {
	return "", false, nil
}
func (nopVerificationCache) SetKind(context.Context, string, types.SubjectKind) error { return nil }
func (nopVerificationCache) Close() error                                             { return nil }
