// Package report renders statistics over the ingested catalogue.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// DailyUploads writes a CSV with one row per calendar day (UTC) from the
// earliest to the latest upload, carrying the day's upload count and the
// running total. Days without uploads appear as zero rows so the series is
// gapless and plots cleanly.
func DailyUploads(w io.Writer, uploads map[int64]time.Time) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write([]string{"date", "uploads", "total"}); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	counts := make(map[time.Time]int)
	var first, last time.Time
	for _, ts := range uploads {
		u := ts.UTC()
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		counts[day]++
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	total := 0
	for day := first; !first.IsZero() && !day.After(last); day = day.AddDate(0, 0, 1) {
		n := counts[day]
		total += n
		row := []string{day.Format("2006-01-02"), strconv.Itoa(n), strconv.Itoa(total)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}
