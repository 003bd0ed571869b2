package scrape

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/run"
)

// Post-interaction settle bounds. The platform renders asynchronously
// after a click or scroll; returning to scanning too early undercounts.
var (
	settleAfterMore    = delayRange{2500 * time.Millisecond, 3500 * time.Millisecond}
	settleAfterReplies = delayRange{1500 * time.Millisecond, 2 * time.Second}
	settleAfterScroll  = delayRange{2 * time.Second, 3 * time.Second}
	settleAfterOpen    = delayRange{2 * time.Second, 3 * time.Second}
	settleAfterToggle  = delayRange{time.Second, 1500 * time.Millisecond}
)

// settle sleeps a random duration within the range, returning early when
// the context is cancelled.
func settle(ctx context.Context, r delayRange) {
	d := r.min
	if r.max > r.min {
		d += rand.N(r.max - r.min)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// scrollResult reports what the scroll step did.
type scrollResult struct {
	Scrolled bool    `json:"scrolled"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
}

// revealLoop drives progressive disclosure of comments within one marked
// container. It owns the per-target extraction session state and is never
// shared across targets.
type revealLoop struct {
	driver   Driver
	strat    strategy
	cfg      app.ScrapeConfig
	state    *run.State
	selector string

	seen    map[string]struct{}
	records []Record
}

func newRevealLoop(d Driver, strat strategy, cfg app.ScrapeConfig, state *run.State, selector string) *revealLoop {
	return &revealLoop{
		driver:   d,
		strat:    strat,
		cfg:      cfg,
		state:    state,
		selector: selector,
		seen:     make(map[string]struct{}),
	}
}

// Run cycles scan → expand until no progress persists, the hard cycle cap
// is reached, or cancellation is requested. Records extracted before any
// stop condition are always kept.
func (l *revealLoop) Run(ctx context.Context) []Record {
	maxCycles := l.strat.maxCycles(l.cfg.MaxCycles)
	limit := l.strat.noProgressLimit(l.cfg.NoProgressLimit)

	streak := 0
	for cycle := 1; cycle <= maxCycles; cycle++ {
		if l.state.Cancelled() || ctx.Err() != nil {
			l.state.Logf("  cancelled at cycle %d, keeping %d comments", cycle, len(l.records))
			break
		}

		added, err := l.scan(ctx)
		if err != nil {
			// Transient: a mid-render snapshot can fail to parse or the
			// marked node can detach momentarily. The no-progress path
			// terminates if it recurs every cycle.
			l.state.Logf("  cycle %d scan error: %v", cycle, err)
		}
		l.state.Logf("  cycle %d/%d: %d new (total %d)", cycle, maxCycles, added, len(l.records))
		l.state.SetRecords(len(l.records))

		if added == 0 {
			streak++
			if streak >= limit {
				l.state.Logf("  no new comments for %d cycles, done", streak)
				break
			}
		} else {
			streak = 0
		}

		if cycle == maxCycles {
			break
		}
		l.expand(ctx)
	}

	return l.records
}

// scan snapshots the container and extracts records not yet seen,
// appending them in DOM-encounter order. That order is the persisted
// record order.
func (l *revealLoop) scan(ctx context.Context) (int, error) {
	html, err := l.driver.OuterHTML(ctx, l.selector)
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}

	added := 0
	for _, rec := range extractRecords(doc, l.cfg.MaxReplyDepth) {
		if _, ok := l.seen[rec.Identifier]; ok {
			continue
		}
		l.seen[rec.Identifier] = struct{}{}
		l.records = append(l.records, rec)
		added++
	}
	return added, nil
}

// expand tries the disclosure affordances in priority order: view-more
// comments, reply expanders, then a viewport scroll. Each action gets a
// bounded settle before the next scan. Action errors are transient.
func (l *revealLoop) expand(ctx context.Context) {
	var clicked int
	if err := l.driver.Evaluate(ctx, buildRootJS(expandCommentsJS, l.selector), &clicked); err != nil {
		l.state.Logf("  expand comments error: %v", err)
	} else if clicked > 0 {
		l.state.Logf("  clicked %d view-more buttons", clicked)
		settle(ctx, settleAfterMore)
	}

	var expanded int
	if err := l.driver.Evaluate(ctx, buildRootJS(expandRepliesJS, l.selector), &expanded); err != nil {
		l.state.Logf("  expand replies error: %v", err)
	} else if expanded > 0 {
		l.state.Logf("  expanded %d reply threads", expanded)
		settle(ctx, settleAfterReplies)
	}

	var scrolled scrollResult
	if err := l.driver.Evaluate(ctx, buildRootJS(scrollJS, l.selector), &scrolled); err != nil {
		l.state.Logf("  scroll error: %v", err)
	} else if scrolled.Scrolled {
		settle(ctx, settleAfterScroll)
	}

	// Base pacing between cycles, on top of any action-specific settles.
	settle(ctx, delayRange{l.cfg.SettleMin, l.cfg.SettleMax})
}
