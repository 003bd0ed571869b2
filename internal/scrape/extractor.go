package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Record is one extracted comment. Created on first sighting, immutable
// thereafter; never updated even if the platform edits the comment.
type Record struct {
	Author string
	Text   string
	// Depth is the reply nesting level, 0 for top-level comments.
	Depth int
	// Identifier is the deduplication key, derived from stable node
	// attributes rather than position, which shifts as content loads.
	Identifier string
}

// TargetResult is the per-target slice of the aggregate result. A failed
// target carries its error and zero records.
type TargetResult struct {
	URL     string
	Type    ContentType
	Caption string
	Records []Record
	Err     error
}

// identifierSep joins author and normalized text into a dedup key. Unit
// separator cannot occur in rendered text.
const identifierSep = "\x1f"

var (
	replyByRe   = regexp.MustCompile(`Reply by (.+?) to `)
	commentByRe = regexp.MustCompile(`Comment by (.+?)(?:\s+(?:about\s+)?(?:a\s+(?:few\s+)?)?(?:an\s+)?(?:\d+\s+)?(?:second|minute|hour|day|week|month|year)s?\s+ago|,|$)`)
	thaiByRe    = regexp.MustCompile(`ความคิดเห็นโดย\s+(.+?)(?:\s+เมื่อ|,|$)`)
	thaiFromRe  = regexp.MustCompile(`ความคิดเห็นจาก\s+(.+?)\s+เมื่อ`)
)

// authorFromAria pulls the commenter name out of a comment node's
// aria-label, stripping trailing timestamps. English and Thai labels are
// supported. Returns "" when the label carries no recognizable name.
func authorFromAria(aria string) string {
	switch {
	case aria == "":
		return ""

	case strings.Contains(aria, "Reply by"):
		if m := replyByRe.FindStringSubmatch(aria); m != nil {
			return strings.TrimSpace(m[1])
		}
		name := strings.Replace(aria, "Reply by ", "", 1)
		name, _, _ = strings.Cut(name, " to ")
		return strings.TrimSpace(name)

	case strings.Contains(aria, "Comment by"):
		if m := commentByRe.FindStringSubmatch(aria); m != nil {
			return strings.TrimSpace(m[1])
		}
		name := strings.Replace(aria, "Comment by", "", 1)
		name, _, _ = strings.Cut(name, ",")
		return strings.TrimSpace(name)

	case strings.Contains(aria, "ความคิดเห็นโดย"):
		if m := thaiByRe.FindStringSubmatch(aria); m != nil {
			return strings.TrimSpace(m[1])
		}
		name := strings.Replace(aria, "ความคิดเห็นโดย", "", 1)
		name, _, _ = strings.Cut(name, "เมื่อ")
		return strings.TrimSpace(name)

	case strings.Contains(aria, "ความคิดเห็นจาก"):
		if m := thaiFromRe.FindStringSubmatch(aria); m != nil {
			return strings.TrimSpace(m[1])
		}
		name := strings.Replace(aria, "ความคิดเห็นจาก", "", 1)
		name, _, _ = strings.Cut(name, "เมื่อ")
		return strings.TrimSpace(name)
	}

	return ""
}

var uiTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(Like|Reply|Share|Follow|Author)$`),
	regexp.MustCompile(`^\d+[wdhmy]$`),
	regexp.MustCompile(`^\d{1,3}$`),
	regexp.MustCompile(`(?i)^(Most relevant|View \d+ repl)`),
}

// meaningfulText rejects UI chrome, timestamps, and reaction counts that
// render inside comment nodes.
func meaningfulText(text string) bool {
	t := strings.TrimSpace(text)
	if len([]rune(t)) < 2 {
		return false
	}
	for _, re := range uiTextPatterns {
		if re.MatchString(t) {
			return false
		}
	}
	return true
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ownedBy reports whether child's nearest enclosing comment node is art,
// so nested replies don't leak their text into the parent record.
func ownedBy(child, art *goquery.Selection) bool {
	owner := child.Closest(`[role="article"]`)
	return owner.Length() > 0 && len(art.Nodes) > 0 && owner.Nodes[0] == art.Nodes[0]
}

// recordFromArticle extracts zero or one Record from a comment node.
// Structural placeholders with no author+text pair are skipped silently.
func recordFromArticle(art *goquery.Selection, depth int) (Record, bool) {
	author := authorFromAria(art.AttrOr("aria-label", ""))

	if author == "" {
		art.Find(`a[href*="/user/"], a[href*="profile.php"], a[role="link"]`).
			EachWithBreak(func(_ int, link *goquery.Selection) bool {
				if !ownedBy(link, art) {
					return true
				}
				author = strings.TrimSpace(link.Text())
				return author == ""
			})
	}
	if author == "" {
		return Record{}, false
	}

	var text string
	art.Find(`div[dir="auto"]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if !ownedBy(div, art) {
			return true
		}
		t := strings.TrimSpace(div.Text())
		if t == "" || !meaningfulText(t) || t == author {
			return true
		}
		text = t
		return false
	})
	if text == "" {
		return Record{}, false
	}

	return Record{
		Author:     author,
		Text:       text,
		Depth:      depth,
		Identifier: author + identifierSep + normalizeWhitespace(text),
	}, true
}

// extractRecords walks a container snapshot and produces records in
// DOM-encounter order. Nodes nested deeper than maxReplyDepth are left
// unextracted.
func extractRecords(doc *goquery.Document, maxReplyDepth int) []Record {
	var records []Record
	doc.Find(`[role="article"]`).Each(func(_ int, art *goquery.Selection) {
		depth := art.ParentsFiltered(`[role="article"]`).Length()
		if depth > maxReplyDepth {
			return
		}
		if rec, ok := recordFromArticle(art, depth); ok {
			records = append(records, rec)
		}
	})
	return records
}

var (
	timestampPrefixRe = regexp.MustCompile(`^\d+[wdhm]`)
	seeMoreSuffixRe   = regexp.MustCompile(`(?i)…?\s*See more$`)
	seeLessSuffixRe   = regexp.MustCompile(`(?i)\s*See less$`)
)

func stripCaptionToggles(s string) string {
	s = seeMoreSuffixRe.ReplaceAllString(s, "")
	s = seeLessSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// captionFromContainer reads the post caption out of the container
// snapshot. Posts carry an explicit caption marker; video pages surface it
// in styled spans that need noise filtering.
func captionFromContainer(doc *goquery.Document, strat strategy) string {
	if strat.contentType == TypePost {
		if t := strings.TrimSpace(doc.Find(strat.captionSelector).First().Text()); t != "" {
			return t
		}
		// Shared posts may lack the marker; take the first sizable text
		// block outside any comment.
		var caption string
		doc.Find(`div[dir="auto"]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
			if div.Closest(`[role="article"]`).Length() > 0 {
				return true
			}
			t := strings.TrimSpace(div.Text())
			if len([]rune(t)) > 20 {
				caption = t
				return false
			}
			return true
		})
		return caption
	}

	var caption string
	doc.Find(strat.captionSelector).EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if span.Closest(`[role="article"]`).Length() > 0 {
			return true
		}
		t := strings.TrimSpace(span.Text())
		if len([]rune(t)) <= 10 || timestampPrefixRe.MatchString(t) {
			return true
		}
		for _, noise := range []string{"Comment by", "Reply by", "replied", "Comments", "Explore more", "Latest videos"} {
			if strings.Contains(t, noise) {
				return true
			}
		}
		caption = stripCaptionToggles(t)
		return false
	})
	return caption
}
