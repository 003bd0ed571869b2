package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/run"
)

// healthCheckTimeout bounds the pre-target liveness probe.
const healthCheckTimeout = 10 * time.Second

// Scraper sequences targets against one shared browser session, isolating
// each target's extraction in its own failure scope.
type Scraper struct {
	session Session
	cfg     app.ScrapeConfig
	state   *run.State
}

func New(session Session, cfg app.ScrapeConfig, state *run.State) *Scraper {
	return &Scraper{session: session, cfg: cfg, state: state}
}

// Run processes the URLs sequentially and returns the aggregate result in
// input order. Target-level failures are logged and recorded on the
// result, never raised; only a session-fatal failure returns an error and
// aborts the remaining targets.
func (s *Scraper) Run(ctx context.Context, rawURLs []string) ([]TargetResult, error) {
	s.state.Begin()

	results := make([]TargetResult, 0, len(rawURLs))
	attempted := false

	total := func() int {
		n := 0
		for _, r := range results {
			n += len(r.Records)
		}
		return n
	}

	for i, raw := range rawURLs {
		if s.state.Cancelled() || ctx.Err() != nil {
			s.state.Logf("stopped before target %d/%d", i+1, len(rawURLs))
			break
		}

		s.state.Logf("[%d/%d] %s", i+1, len(rawURLs), raw)

		target, err := ClassifyURL(raw)
		if err != nil {
			s.state.Logf("  skipping: %v", err)
			results = append(results, TargetResult{URL: raw, Err: err})
			continue
		}
		s.state.Logf("  type: %s", target.Type)

		hcCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err = s.session.CheckAlive(hcCtx)
		cancel()
		if err != nil {
			if !attempted {
				// Nothing has been scraped yet; the session never worked.
				fatal := &SessionFatalError{Err: err}
				s.state.Fail(fatal)
				return results, fatal
			}
			s.state.Logf("  health check failed, skipping target: %v", err)
			results = append(results, TargetResult{URL: target.URL, Type: target.Type, Err: err})
			continue
		}
		attempted = true

		results = append(results, s.scrapeTarget(ctx, target))
		s.state.SetRecords(total())

		if i < len(rawURLs)-1 && !s.state.Cancelled() {
			// Creating a page right after closing the previous one races
			// the browser's internal cleanup and yields spurious
			// handle-closed failures.
			s.state.Logf("waiting %s before next target", s.cfg.InterTargetDelay)
			settle(ctx, delayRange{s.cfg.InterTargetDelay, s.cfg.InterTargetDelay})
		}
	}

	s.state.Finish(total())
	return results, nil
}

// scrapeTarget runs one target on a fresh page. The page is always closed,
// and any failure stays scoped to this target.
func (s *Scraper) scrapeTarget(ctx context.Context, target Target) TargetResult {
	res := TargetResult{URL: target.URL, Type: target.Type}

	page, err := s.session.NewPage(ctx)
	if err != nil {
		s.state.Logf("  creating page failed: %v", err)
		res.Err = err
		return res
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.state.Logf("  page close warning: %v", err)
		}
	}()

	strat := strategyFor(target.Type)

	if err := page.Navigate(ctx, target.URL); err != nil {
		s.state.Logf("  navigation failed: %v", err)
		res.Err = err
		return res
	}
	settle(ctx, strat.navSettle)

	if strat.needsOpen {
		s.openCommentPane(ctx, page)
	}
	if strat.initialScroll {
		if err := page.Evaluate(ctx, `window.scrollBy(0, 500)`, nil); err != nil {
			slog.Debug("initial scroll failed", "error", err)
		}
		settle(ctx, settleAfterScroll)
	}

	cls, err := classifyContainer(ctx, page, strat)
	if err != nil {
		s.state.Logf("  %v", err)
		res.Err = err
		return res
	}
	s.state.Logf("  container #%d selected (%d items visible)", cls.Index, cls.Items)

	res.Caption = s.captureCaption(ctx, page, strat, cls.Selector)
	if res.Caption == "" {
		res.Caption = "No caption"
		s.state.Logf("  no caption")
	} else {
		s.state.Logf("  caption: %.80s", res.Caption)
	}

	loop := newRevealLoop(page, strat, s.cfg, s.state, cls.Selector)
	res.Records = loop.Run(ctx)
	s.state.Logf("  %s complete: %d comments", target.Type, len(res.Records))
	return res
}

// openCommentPane reveals the comment pane on short-form video pages; some
// renders auto-load it, others need the comment button clicked.
func (s *Scraper) openCommentPane(ctx context.Context, page Driver) {
	var result struct {
		Opened bool `json:"opened"`
		Auto   bool `json:"auto"`
	}
	if err := page.Evaluate(ctx, openPaneJS, &result); err != nil {
		s.state.Logf("  opening comment pane failed: %v", err)
		return
	}
	switch {
	case result.Opened && result.Auto:
		s.state.Logf("  comment pane auto-loaded")
	case result.Opened:
		s.state.Logf("  clicked comment button")
		settle(ctx, settleAfterOpen)
	default:
		s.state.Logf("  comment pane affordance not found")
	}
}

// captureCaption expands a truncated caption and reads it from a fresh
// container snapshot. A missing caption is not an error.
func (s *Scraper) captureCaption(ctx context.Context, page Driver, strat strategy, selector string) string {
	var toggled bool
	if err := page.Evaluate(ctx, buildRootJS(seeMoreJS, selector), &toggled); err != nil {
		slog.Debug("caption toggle failed", "error", err)
	} else if toggled {
		settle(ctx, settleAfterToggle)
	}

	html, err := page.OuterHTML(ctx, selector)
	if err != nil {
		slog.Debug("caption snapshot failed", "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Debug("caption snapshot parse failed", "error", err)
		return ""
	}
	return captionFromContainer(doc, strat)
}
