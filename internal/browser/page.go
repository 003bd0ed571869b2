package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// evalTimeout bounds non-navigation interactions. A hung evaluate is a
// target-level failure, not a reason to stall the run.
const evalTimeout = 15 * time.Second

// page is the per-target chromedp tab. It implements scrape.Driver.
type page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// run executes actions against the tab, bounded by timeout and the
// caller's context. Timeouts are enforced with a select rather than a
// child context: cancelling a child of the chromedp task context breaks
// the target in chromedp v0.14.
func (p *page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(p.ctx, actions...)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case err := <-done:
		return err
	case <-expired:
		return fmt.Errorf("interaction timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, p.navTimeout, chromedp.Navigate(url))
}

func (p *page) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, evalTimeout, chromedp.Evaluate(expr, out))
}

func (p *page) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := p.run(ctx, evalTimeout, chromedp.OuterHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

func (p *page) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
