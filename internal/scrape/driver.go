package scrape

import "context"

// Driver is a per-target page handle. Every call is a suspend point that
// awaits the browser; implementations must bound each interaction so a hung
// page surfaces as a target-level failure instead of stalling the run.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Evaluate runs a JS expression in the page and unmarshals the result
	// into out. A nil out discards the result.
	Evaluate(ctx context.Context, expr string, out any) error
	// OuterHTML returns the serialized subtree for the first node matching
	// the selector.
	OuterHTML(ctx context.Context, selector string) (string, error)
	Close() error
}

// Session is the shared browser session spanning all targets in a run.
// Pages are created fresh per target and never reused.
type Session interface {
	NewPage(ctx context.Context) (Driver, error)
	// CheckAlive verifies the session still responds by driving a throwaway
	// page to a neutral location.
	CheckAlive(ctx context.Context) error
}
