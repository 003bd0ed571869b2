package scrape

import "time"

// delayRange bounds a randomized settle delay.
type delayRange struct {
	min, max time.Duration
}

// strategy captures how one content type reveals its comments: which
// containers are candidates, what marks the authoritative one, which
// affordances need clicking, and how patient the reveal loop should be.
type strategy struct {
	contentType ContentType

	// candidateSelectors are tried in order; within each selector,
	// candidates are visited in DOM order.
	candidateSelectors []string
	// captionSelector is the semantic marker that distinguishes the real
	// container from decoys. Item counts are deliberately not consulted:
	// lazily-loaded containers may render zero items at first.
	captionSelector string

	// needsOpen means comments live behind an explicit open affordance.
	needsOpen bool
	// initialScroll nudges the window once before the first cycle.
	initialScroll bool

	defaultMaxCycles  int
	defaultNoProgress int

	navSettle delayRange
}

var strategies = map[ContentType]strategy{
	TypePost: {
		contentType:        TypePost,
		candidateSelectors: []string{`[role="dialog"]`, `[role="main"]`},
		captionSelector:    `[data-ad-preview="message"]`,
		defaultMaxCycles:   20,
		defaultNoProgress:  3,
		navSettle:          delayRange{5 * time.Second, 7 * time.Second},
	},
	TypeReel: {
		contentType:        TypeReel,
		candidateSelectors: []string{`[role="complementary"]`},
		captionSelector:    `span.x193iq5w, span.x1lliihq`,
		needsOpen:          true,
		defaultMaxCycles:   50,
		defaultNoProgress:  3,
		navSettle:          delayRange{3 * time.Second, 5 * time.Second},
	},
	TypeWatch: {
		contentType:        TypeWatch,
		candidateSelectors: []string{`[role="main"]`},
		captionSelector:    `span.x193iq5w, span.x1lliihq`,
		initialScroll:      true,
		defaultMaxCycles:   30,
		defaultNoProgress:  4,
		navSettle:          delayRange{3 * time.Second, 5 * time.Second},
	},
}

func strategyFor(t ContentType) strategy {
	return strategies[t]
}

// maxCycles resolves the hard cycle cap: config override, else per-type default.
func (s strategy) maxCycles(configured int) int {
	if configured > 0 {
		return configured
	}
	return s.defaultMaxCycles
}

// noProgressLimit resolves the consecutive no-growth limit.
func (s strategy) noProgressLimit(configured int) int {
	if configured > 0 {
		return configured
	}
	return s.defaultNoProgress
}
