package cmd

import (
	"context"

	"github.com/spritetj/fb-scraper/internal/app"
	"github.com/spritetj/fb-scraper/internal/browser"
	"github.com/spritetj/fb-scraper/internal/cookies"
	"github.com/spritetj/fb-scraper/internal/run"
	"github.com/spritetj/fb-scraper/internal/scrape"
)

// runPipeline launches the shared browser session, injects cookies, and
// hands the targets to the orchestrator. One session spans all targets.
func runPipeline(ctx context.Context, cfg *app.Config, urls []string, cookieSet []cookies.Cookie, state *run.State) ([]scrape.TargetResult, error) {
	b, err := browser.Launch(ctx, cfg.Browser)
	if err != nil {
		fatal := &scrape.SessionFatalError{Err: err}
		state.Fail(fatal)
		return nil, fatal
	}
	defer b.Close()

	if len(cookieSet) > 0 {
		if err := b.SetCookies(ctx, cookieSet); err != nil {
			fatal := &scrape.SessionFatalError{Err: err}
			state.Fail(fatal)
			return nil, fatal
		}
	}
	state.Logf("created browser context with %d cookies", len(cookieSet))

	return scrape.New(b, cfg.Scrape, state).Run(ctx, urls)
}
