package scrape

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed js/classify.js
var classifyJS string

//go:embed js/expand_comments.js
var expandCommentsJS string

//go:embed js/expand_replies.js
var expandRepliesJS string

//go:embed js/scroll.js
var scrollJS string

//go:embed js/open_pane.js
var openPaneJS string

//go:embed js/see_more.js
var seeMoreJS string

// classification is the classifier verdict for one page.
type classification struct {
	Found bool `json:"found"`
	// Index of the winner among all candidates in DOM order. When several
	// candidates carry a caption (decoy modals), the first wins; this
	// tie-break is deterministic, not guaranteed correct per platform
	// semantics.
	Index int `json:"index"`
	// Selector addresses the marked winner for the rest of the session.
	Selector string `json:"selector"`
	// Items is diagnostic only. Zero items is a valid state for a
	// lazily-loaded container and never rejects a candidate.
	Items   int `json:"items"`
	Scanned int `json:"scanned"`
}

// buildClassifyJS fills the classifier script with the strategy's candidate
// and caption selectors.
func buildClassifyJS(strat strategy) string {
	candidates, _ := json.Marshal(strat.candidateSelectors)
	caption, _ := json.Marshal(strat.captionSelector)

	r := strings.NewReplacer(
		"__CANDIDATES__", string(candidates),
		"__CAPTION__", string(caption),
	)
	return r.Replace(classifyJS)
}

// buildRootJS fills a container-scoped script with the selector of the
// marked main container.
func buildRootJS(script, rootSelector string) string {
	root, _ := json.Marshal(rootSelector)
	return strings.Replace(script, "__ROOT__", string(root), 1)
}

// classifyContainer picks the main content container among the strategy's
// candidates. Selection is final for the target's extraction session; the
// loop never re-classifies mid-run.
func classifyContainer(ctx context.Context, d Driver, strat strategy) (*classification, error) {
	var res classification
	if err := d.Evaluate(ctx, buildClassifyJS(strat), &res); err != nil {
		return nil, fmt.Errorf("classifying containers: %w", err)
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %d candidates scanned, none with caption", ErrNoContainer, res.Scanned)
	}
	return &res, nil
}
