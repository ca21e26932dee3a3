package localmedia

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const workDirPattern = "certificate-*"

// ReapWorkDirs removes converter temp dirs under root older than retention.
// Convert cleans up after itself; this only catches dirs left behind when the
// process was killed mid-conversion.
func ReapWorkDirs(root string, retention time.Duration, now time.Time) (int, error) {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(root, workDirPattern))
	if err != nil {
		return 0, err
	}
	threshold := now.Add(-retention)
	removed := 0
	for _, dir := range matches {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() || info.ModTime().After(threshold) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

type ReaperOptions struct {
	WorkRoot  string
	Schedule  string
	Retention time.Duration
}

// StartWorkDirReaper runs ReapWorkDirs on a cron schedule until ctx is done.
func StartWorkDirReaper(ctx context.Context, log *logger.Logger, opts ReaperOptions) error {
	if opts.Schedule == "" {
		opts.Schedule = "*/30 * * * *"
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	log = log.With("service", "WorkDirReaper")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(opts.Schedule, func() {
		n, err := ReapWorkDirs(opts.WorkRoot, opts.Retention, time.Now())
		if err != nil {
			log.Warn("Work dir reap failed", "root", opts.WorkRoot, "removed", n, "error", err)
			return
		}
		if n > 0 {
			log.Info("Reaped stale converter dirs", "root", opts.WorkRoot, "removed", n)
		}
	}); err != nil {
		return err
	}
	c.Start()
	log.Info("Work dir reaper started", "schedule", opts.Schedule, "retention", opts.Retention.String())

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
