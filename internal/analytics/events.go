// Package analytics records one report per completed crawl and hands it to
// any number of sinks: the CSV results log, a Kafka topic, PostgreSQL and an
// in-memory aggregate served over HTTP.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CrawlReport describes one finished crawl.
type CrawlReport struct {
	RunID          string        `json:"run_id"`
	Timestamp      time.Time     `json:"timestamp"`
	Duration       time.Duration `json:"duration_ns"`
	Branches       int           `json:"branches"`
	PeopleFound    int           `json:"people_found"`
	Subject        string        `json:"subject"`
	AddedDocuments int           `json:"added_documents"`
	PeopleRequired int           `json:"people_required"`
	FromCountry    bool          `json:"from_country"`
}

// Reporter consumes crawl reports.
type Reporter interface {
	Report(ctx context.Context, report CrawlReport) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, report CrawlReport) error

func (f ReporterFunc) Report(ctx context.Context, report CrawlReport) error {
	return f(ctx, report)
}

// Fanout delivers each report to every reporter. A failing reporter does not
// stop delivery to the others; their errors are joined.
type Fanout []Reporter

func (f Fanout) Report(ctx context.Context, report CrawlReport) error {
	var errs []error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every report.
var Discard Reporter = ReporterFunc(func(context.Context, CrawlReport) error { return nil })

// Deliver reports through r and logs a failure instead of returning it, so
// report I/O never fails a search.
func Deliver(ctx context.Context, r Reporter, report CrawlReport) {
	if r == nil {
		return
	}
	if err := r.Report(ctx, report); err != nil {
		slog.Default().With("component", "analytics").Error("crawl report not fully delivered",
			"run_id", report.RunID,
			"subject", report.Subject,
			"error", err,
		)
	}
}
