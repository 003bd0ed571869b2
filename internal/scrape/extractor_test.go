package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestAuthorFromAria(t *testing.T) {
	cases := []struct {
		name string
		aria string
		want string
	}{
		{"english with timestamp", "Comment by Alice Anderson 2 hours ago", "Alice Anderson"},
		{"english bare", "Comment by Dana Smith", "Dana Smith"},
		{"english with comma", "Comment by Alice, 5 minutes ago", "Alice"},
		{"english about an hour", "Comment by Eve about an hour ago", "Eve"},
		{"reply", "Reply by Bob Jones to Alice Anderson", "Bob Jones"},
		{"reply without target", "Reply by Bob Jones", "Bob Jones"},
		{"thai by", "ความคิดเห็นโดย สมชาย ใจดี เมื่อ 3 ชั่วโมง", "สมชาย ใจดี"},
		{"thai from", "ความคิดเห็นจาก สมหญิง เมื่อ 2 วัน", "สมหญิง"},
		{"empty", "", ""},
		{"unrecognized", "Photo description", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, authorFromAria(tc.aria))
		})
	}
}

func TestMeaningfulText(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Great photo, congrats!", true},
		{"ok", true},
		{"a", false},
		{"", false},
		{"Like", false},
		{"reply", false},
		{"Share", false},
		{"2h", false},
		{"14w", false},
		{"42", false},
		{"Most relevant", false},
		{"View 12 replies", false},
		{"1000", true}, // four digits is not a reaction badge
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, meaningfulText(tc.text), tc.text)
	}
}

const commentTreeHTML = `
<div role="main">
  <div data-ad-preview="message">This is the post caption text for everyone</div>
  <div role="article" aria-label="Comment by Alice Anderson 2 hours ago">
    <a role="link" href="/alice.anderson">Alice Anderson</a>
    <div dir="auto">Alice Anderson</div>
    <div dir="auto">Like</div>
    <div dir="auto">2h</div>
    <div dir="auto">Great photo, congrats!</div>
    <div role="article" aria-label="Reply by Bob Jones to Alice Anderson">
      <div dir="auto">Bob Jones</div>
      <div dir="auto">Thanks for sharing</div>
    </div>
  </div>
  <div role="article" aria-label="ความคิดเห็นโดย สมชาย ใจดี เมื่อ 3 ชั่วโมง">
    <div dir="auto">สมชาย ใจดี</div>
    <div dir="auto">สวยมากครับ</div>
  </div>
  <div role="article" aria-label="">
    <div dir="auto">See translation</div>
  </div>
</div>`

func TestExtractRecords(t *testing.T) {
	doc := parseHTML(t, commentTreeHTML)
	records := extractRecords(doc, 4)

	require.Len(t, records, 3)

	assert.Equal(t, "Alice Anderson", records[0].Author)
	assert.Equal(t, "Great photo, congrats!", records[0].Text)
	assert.Equal(t, 0, records[0].Depth)

	assert.Equal(t, "Bob Jones", records[1].Author)
	assert.Equal(t, "Thanks for sharing", records[1].Text)
	assert.Equal(t, 1, records[1].Depth)

	assert.Equal(t, "สมชาย ใจดี", records[2].Author)
	assert.Equal(t, "สวยมากครับ", records[2].Text)
	assert.Equal(t, 0, records[2].Depth)
}

func TestExtractRecordsReplyTextDoesNotLeakIntoParent(t *testing.T) {
	doc := parseHTML(t, commentTreeHTML)
	records := extractRecords(doc, 4)

	require.NotEmpty(t, records)
	assert.NotContains(t, records[0].Text, "Thanks for sharing")
}

func TestExtractRecordsDepthCap(t *testing.T) {
	html := `
<div role="article" aria-label="Comment by Zero"><div dir="auto">level zero text</div>
 <div role="article" aria-label="Comment by One"><div dir="auto">level one text</div>
  <div role="article" aria-label="Comment by Two"><div dir="auto">level two text</div>
   <div role="article" aria-label="Comment by Three"><div dir="auto">level three text</div></div>
  </div>
 </div>
</div>`
	doc := parseHTML(t, html)

	records := extractRecords(doc, 2)
	require.Len(t, records, 3)
	assert.Equal(t, 2, records[2].Depth)

	records = extractRecords(doc, 0)
	require.Len(t, records, 1)
	assert.Equal(t, "Zero", records[0].Author)
}

func TestRecordFromArticleAuthorFromProfileLink(t *testing.T) {
	doc := parseHTML(t, `
<div role="article">
  <a href="https://www.facebook.com/profile.php?id=100001">Carol Chen</a>
  <div dir="auto">Nice one</div>
</div>`)

	rec, ok := recordFromArticle(doc.Find(`[role="article"]`).First(), 0)
	require.True(t, ok)
	assert.Equal(t, "Carol Chen", rec.Author)
	assert.Equal(t, "Nice one", rec.Text)
}

func TestRecordFromArticleSkipsAuthorEcho(t *testing.T) {
	// The author's display name renders as its own text block and must not
	// be mistaken for the comment body.
	doc := parseHTML(t, `
<div role="article" aria-label="Comment by Dana Smith">
  <div dir="auto">Dana Smith</div>
  <div dir="auto">hello there</div>
</div>`)

	rec, ok := recordFromArticle(doc.Find(`[role="article"]`).First(), 0)
	require.True(t, ok)
	assert.Equal(t, "hello there", rec.Text)
}

func TestIdentifierNormalizesWhitespace(t *testing.T) {
	a := parseHTML(t, `<div role="article" aria-label="Comment by Dana"><div dir="auto">hello   brave
 world</div></div>`)
	b := parseHTML(t, `<div role="article" aria-label="Comment by Dana"><div dir="auto">hello brave world</div></div>`)

	recA, ok := recordFromArticle(a.Find(`[role="article"]`).First(), 0)
	require.True(t, ok)
	recB, ok := recordFromArticle(b.Find(`[role="article"]`).First(), 0)
	require.True(t, ok)

	assert.Equal(t, recA.Identifier, recB.Identifier)
	assert.Equal(t, "Dana"+identifierSep+"hello brave world", recB.Identifier)
}

func TestCaptionFromContainerPost(t *testing.T) {
	doc := parseHTML(t, commentTreeHTML)
	caption := captionFromContainer(doc, strategyFor(TypePost))
	assert.Equal(t, "This is the post caption text for everyone", caption)
}

func TestCaptionFromContainerPostFallback(t *testing.T) {
	doc := parseHTML(t, `
<div role="main">
  <div dir="auto">short</div>
  <div dir="auto">A shared post without the usual caption marker element</div>
  <div role="article" aria-label="Comment by Alice"><div dir="auto">first comment here</div></div>
</div>`)
	caption := captionFromContainer(doc, strategyFor(TypePost))
	assert.Equal(t, "A shared post without the usual caption marker element", caption)
}

func TestCaptionFromContainerVideo(t *testing.T) {
	doc := parseHTML(t, `
<div role="main">
  <span class="x193iq5w">3d</span>
  <span class="x193iq5w">Comment by Alice Anderson 2 hours ago</span>
  <span class="x1lliihq">Amazing sunset timelapse from the mountain top… See more</span>
  <div role="article" aria-label="Comment by Alice"><span class="x193iq5w">inside a comment so not a caption</span></div>
</div>`)
	caption := captionFromContainer(doc, strategyFor(TypeWatch))
	assert.Equal(t, "Amazing sunset timelapse from the mountain top", caption)
}

func TestStripCaptionToggles(t *testing.T) {
	assert.Equal(t, "hello world of captions", stripCaptionToggles("hello world of captions… See more"))
	assert.Equal(t, "hello world of captions", stripCaptionToggles("hello world of captions See less"))
	assert.Equal(t, "plain caption no suffix", stripCaptionToggles("plain caption no suffix"))
}
