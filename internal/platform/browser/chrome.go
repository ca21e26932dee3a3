// Package browser prints HTML to PDF with a headless Chrome driven over the
// DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

// A4 in inches, landscape.
const (
	a4LongInches  = 11.69
	a4ShortInches = 8.27
)

const defaultPrintTimeout = 30 * time.Second

type ChromeOptions struct {
	// ExecPath overrides chromedp's browser discovery.
	ExecPath string
	Timeout  time.Duration
}

// ChromeRenderer owns one browser process; every PrintPDF opens a fresh tab,
// so concurrent calls do not share page state.
type ChromeRenderer struct {
	log     *logger.Logger
	opts    ChromeOptions
	timeout time.Duration

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

func NewChromeRenderer(log *logger.Logger, opts ChromeOptions) *ChromeRenderer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultPrintTimeout
	}
	return &ChromeRenderer{
		log:     log.With("service", "ChromeRenderer"),
		opts:    opts,
		timeout: timeout,
	}
}

// browser starts Chrome lazily so processes that never synthesize a
// certificate do not pay for it.
func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx != nil && r.browserCtx.Err() == nil {
		return r.browserCtx, nil
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	// first Run launches the process
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	r.allocCtx, r.allocCancel = allocCtx, allocCancel
	r.browserCtx, r.browserStop = browserCtx, browserStop
	return browserCtx, nil
}

func (r *ChromeRenderer) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	if html == "" {
		return nil, render.Errorf("print", "empty html document")
	}
	browserCtx, err := r.browser()
	if err != nil {
		return nil, render.Wrap("print", err)
	}

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()
	// honour the caller's cancellation as well as our own bound
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			loaded := make(chan struct{})
			var once sync.Once
			lctx, lcancel := context.WithCancel(ctx)
			defer lcancel()
			chromedp.ListenTarget(lctx, func(ev interface{}) {
				if _, ok := ev.(*page.EventLoadEventFired); ok {
					once.Do(func() { close(loaded) })
				}
			})
			if err := page.SetDocumentContent(tree.Frame.ID, html).Do(ctx); err != nil {
				return err
			}
			select {
			case <-loaded:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				WithPaperWidth(a4ShortInches).
				WithPaperHeight(a4LongInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return nil, &render.RenderError{Stage: "print", Err: fmt.Errorf("chrome timed out after %s: %w", r.timeout, context.DeadlineExceeded)}
		}
		return nil, render.Wrap("print", fmt.Errorf("chrome print failed: %w", err))
	}
	if len(pdf) == 0 {
		return nil, render.Errorf("print", "chrome produced an empty pdf")
	}
	r.log.Debug("printed certificate html", "bytes", len(pdf))
	return pdf, nil
}

// Close stops the browser process if one was started.
func (r *ChromeRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserStop != nil {
		r.browserStop()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	r.browserCtx, r.browserStop, r.allocCtx, r.allocCancel = nil, nil, nil, nil
}
