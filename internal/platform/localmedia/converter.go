package localmedia

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

// OfficeConverter shells out to LibreOffice (soffice) to turn a merged DOCX
// into a PDF. Each call works in its own temp dir which is removed on every
// exit path, including timeouts.
type OfficeConverter struct {
	log         *logger.Logger
	sofficePath string
	workRoot    string
	timeout     time.Duration
}

type OfficeConverterOptions struct {
	SofficePath string
	// WorkRoot is the parent of the per-call temp dirs; os.TempDir() when empty.
	WorkRoot string
	Timeout  time.Duration
}

const defaultConvertTimeout = 30 * time.Second

func NewOfficeConverter(log *logger.Logger, opts OfficeConverterOptions) *OfficeConverter {
	if strings.TrimSpace(opts.SofficePath) == "" {
		opts.SofficePath = "soffice"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultConvertTimeout
	}
	return &OfficeConverter{
		log:         log.With("service", "OfficeConverter"),
		sofficePath: opts.SofficePath,
		workRoot:    strings.TrimSpace(opts.WorkRoot),
		timeout:     opts.Timeout,
	}
}

// AssertReady checks that the soffice binary can be found.
func (c *OfficeConverter) AssertReady(ctx context.Context) error {
	if _, err := exec.LookPath(c.sofficePath); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", c.sofficePath, err)
	}
	if c.workRoot != "" {
		if err := os.MkdirAll(c.workRoot, 0o755); err != nil {
			return fmt.Errorf("create workRoot: %w", err)
		}
	}
	return nil
}

func (c *OfficeConverter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	if len(docx) == 0 {
		return nil, render.Errorf("convert", "empty input document")
	}
	if c.workRoot != "" {
		if err := os.MkdirAll(c.workRoot, 0o755); err != nil {
			return nil, render.Wrap("convert", fmt.Errorf("mkdir workRoot: %w", err))
		}
	}
	dir, err := os.MkdirTemp(c.workRoot, "certificate-*")
	if err != nil {
		return nil, render.Wrap("convert", fmt.Errorf("create temp dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.log.Warn("failed to remove converter temp dir", "dir", dir, "error", err)
		}
	}()

	inputPath := filepath.Join(dir, "certificate.docx")
	if err := os.WriteFile(inputPath, docx, 0o600); err != nil {
		return nil, render.Wrap("convert", fmt.Errorf("write temp file: %w", err))
	}
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, render.Wrap("convert", fmt.Errorf("mkdir outDir: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.sofficePath,
		"--headless",
		"--nologo",
		"--nolockcheck",
		"--nodefault",
		"--norestore",
		// isolated profile so parallel conversions don't fight over the user one
		"-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(dir, "profile")),
		"--convert-to", "pdf",
		"--outdir", outDir,
		inputPath,
	)
	// kill whatever soffice forked too, not only the launcher
	setProcessGroup(cmd)
	cmd.WaitDelay = 2 * time.Second

	started := time.Now()
	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, &render.RenderError{
			Stage: "convert",
			Err:   fmt.Errorf("soffice timed out after %s: %w", c.timeout, context.DeadlineExceeded),
		}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, render.Errorf("convert", "soffice exited with code %d: %s", exitErr.ExitCode(), trimOutput(out))
		}
		return nil, render.Wrap("convert", fmt.Errorf("soffice convert failed: %w", err))
	}

	pdfPath := filepath.Join(outDir, "certificate.pdf")
	if _, statErr := os.Stat(pdfPath); statErr != nil {
		alt, scanErr := newestFileWithExt(outDir, ".pdf")
		if scanErr != nil {
			return nil, render.Errorf("convert", "pdf output not found at %s: %v; soffice out=%s", pdfPath, scanErr, trimOutput(out))
		}
		pdfPath = alt
	}
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, render.Wrap("convert", fmt.Errorf("read pdf: %w", err))
	}
	if len(pdf) == 0 {
		return nil, render.Errorf("convert", "soffice produced an empty pdf")
	}
	c.log.Debug("converted certificate document", "bytes", len(pdf), "duration", time.Since(started).String())
	return pdf, nil
}

func newestFileWithExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) != ext {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no %s files in %s", ext, dir)
	}
	return newest, nil
}

func trimOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
