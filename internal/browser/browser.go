// Package browser owns the chromedp session lifecycle: one browser process
// and one logical context with injected cookies span a whole run, while
// page handles are created fresh per target.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/cookies"
	"github.com/spritetj/fb-scraper/internal/scrape"
)

// Browser is the shared session. It satisfies scrape.Session.
type Browser struct {
	cfg           app.BrowserConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// allocatorOpts returns exec-allocator options with the stability flag set
// needed on Linux, containers, and resource-constrained hosts.
func allocatorOpts(cfg app.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("disable-setuid-sandbox", cfg.NoSandbox),
		// /dev/shm is tiny in containers; renderers crash without this.
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-features", "TranslateUI"),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-hang-monitor", true),

		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
		chromedp.UserAgent("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	}

	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}
	opts = append(opts, chromedp.Flag("headless", headlessVal))

	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	return opts
}

// Launch starts the browser process and its shared context, then waits a
// fixed settle so the context fully initializes before first use.
func Launch(ctx context.Context, cfg app.BrowserConfig) (*Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOpts(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the process to start so failures surface
	// here rather than on the first target.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	slog.Debug("browser context created")

	b := &Browser{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
	if err := b.settle(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Browser) settle(ctx context.Context) error {
	t := time.NewTimer(b.cfg.PageSettle)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetCookies injects the sanitized cookie set into the shared context so
// every page created for this run carries the session.
func (b *Browser) SetCookies(ctx context.Context, set []cookies.Cookie) error {
	params := make([]*network.CookieParam, 0, len(set))
	for _, c := range set {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	if err := chromedp.Run(b.browserCtx, storage.SetCookies(params)); err != nil {
		return fmt.Errorf("injecting %d cookies: %w", len(params), err)
	}
	return nil
}

// NewPage opens a fresh tab with the configured viewport and waits the
// fixed settle before it is navigated. The caller owns the page and must
// close it before the next target's page is created.
func (b *Browser) NewPage(ctx context.Context) (scrape.Driver, error) {
	pageCtx, cancel := chromedp.NewContext(b.browserCtx)

	err := chromedp.Run(pageCtx,
		chromedp.EmulateViewport(int64(b.cfg.Viewport.Width), int64(b.cfg.Viewport.Height)),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating page: %w", err)
	}

	if err := b.settle(ctx); err != nil {
		cancel()
		return nil, err
	}

	return &page{
		ctx:        pageCtx,
		cancel:     cancel,
		navTimeout: b.cfg.NavTimeout,
	}, nil
}

// CheckAlive drives a throwaway page to a neutral location to verify the
// session still responds.
func (b *Browser) CheckAlive(ctx context.Context) error {
	p, err := b.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("health check page: %w", err)
	}
	defer p.Close()

	if err := p.Navigate(ctx, "about:blank"); err != nil {
		return fmt.Errorf("health check navigation: %w", err)
	}
	return nil
}

// Close tears down the shared context and the browser process.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}
