package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/store"
)

var resultsHeader = []string{
	"Date", "Crawling_Duration", "Branching_Times", "People_Found",
	"Keyword", "Added_URIs", "People_Required", "From_Country",
}

// ResultsLog appends one CSV row per crawl. The header is written when the
// file is created.
type ResultsLog struct {
	mu   sync.Mutex
	path string
}

func NewResultsLog(path string) *ResultsLog {
	return &ResultsLog{path: path}
}

func (l *ResultsLog) Path() string {
	return l.path
}

func (l *ResultsLog) Report(_ context.Context, r CrawlReport) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening results log: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat results log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(resultsHeader); err != nil {
			return fmt.Errorf("writing results header: %w", err)
		}
	}
	if err := w.Write(record(r)); err != nil {
		return fmt.Errorf("writing results row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing results log: %w", err)
	}
	return f.Close()
}

func record(r CrawlReport) []string {
	fromCountry := "0"
	if r.FromCountry {
		fromCountry = "1"
	}
	return []string{
		store.FormatTimestamp(r.Timestamp),
		strconv.FormatFloat(r.Duration.Seconds(), 'f', 3, 64),
		strconv.Itoa(r.Branches),
		strconv.Itoa(r.PeopleFound),
		r.Subject,
		strconv.Itoa(r.AddedDocuments),
		strconv.Itoa(r.PeopleRequired),
		fromCountry,
	}
}
