package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spritetj/fb-scraper/internal/scrape"
)

func sampleResults() []scrape.TargetResult {
	return []scrape.TargetResult{
		{
			URL:     "https://www.facebook.com/page/posts/1",
			Type:    scrape.TypePost,
			Caption: "Caption, with a comma",
			Records: []scrape.Record{
				{Author: "Alice", Text: "first \"quoted\" comment"},
				{Author: "สมชาย", Text: "สวยมากครับ"},
			},
		},
		{
			URL: "https://www.facebook.com/page/posts/2",
			Err: errors.New("no container"),
		},
		{
			URL:     "https://www.facebook.com/reel/3",
			Type:    scrape.TypeReel,
			Caption: "No caption",
			Records: []scrape.Record{
				{Author: "Bob", Text: "nice reel"},
			},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults()))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM), "output must start with a UTF-8 BOM")

	rows, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)

	// Header plus one row per record; the failed target contributes none.
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"URL", "Type", "Caption", "Commenter", "Comment"}, rows[0])
	assert.Equal(t, []string{"https://www.facebook.com/page/posts/1", "POST", "Caption, with a comma", "Alice", `first "quoted" comment`}, rows[1])
	assert.Equal(t, "สมชาย", rows[2][3])
	assert.Equal(t, []string{"https://www.facebook.com/reel/3", "REEL", "No caption", "Bob", "nice reel"}, rows[3])
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 23, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "facebook_comments_20260823_140509.csv", Filename(ts))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir() + "/nested/out"

	path, err := WriteFile(dir, sampleResults())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "nice reel")
}

func TestTotalRecords(t *testing.T) {
	assert.Equal(t, 3, TotalRecords(sampleResults()))
	assert.Equal(t, 0, TotalRecords(nil))
}
