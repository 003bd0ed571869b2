// Package export serializes aggregate results to CSV. The engine
// guarantees deduplicated, ordered records per target; this layer owns
// column mapping, escaping, and file naming.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spritetj/fb-scraper/internal/scrape"
)

// utf8BOM makes spreadsheet tools decode Thai and other non-ASCII text
// correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"URL", "Type", "Caption", "Commenter", "Comment"}

// Write emits one row per record, targets in aggregate order, records in
// first-sighted order. Failed targets contribute no rows.
func Write(w io.Writer, results []scrape.TargetResult) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, res := range results {
		for _, rec := range res.Records {
			row := []string{res.URL, string(res.Type), res.Caption, rec.Author, rec.Text}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the timestamped default output name.
func Filename(t time.Time) string {
	return fmt.Sprintf("facebook_comments_%s.csv", t.Format("20060102_150405"))
}

// WriteFile writes the aggregate result under dir, creating it if needed,
// and returns the written path.
func WriteFile(dir string, results []scrape.TargetResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, Filename(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, results); err != nil {
		return "", err
	}
	return path, nil
}

// TotalRecords counts extracted records across all targets.
func TotalRecords(results []scrape.TargetResult) int {
	n := 0
	for _, res := range results {
		n += len(res.Records)
	}
	return n
}
