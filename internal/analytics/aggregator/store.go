// Package aggregator persists crawl reports to PostgreSQL so crawl history
// survives restarts.
package aggregator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/resilience"
)

const schema = `CREATE TABLE IF NOT EXISTS crawl_reports (
    id              BIGSERIAL PRIMARY KEY,
    run_id          TEXT NOT NULL,
    crawled_at      TIMESTAMPTZ NOT NULL,
    duration_ms     BIGINT NOT NULL,
    branches        INTEGER NOT NULL,
    people_found    INTEGER NOT NULL,
    subject         TEXT NOT NULL,
    added_documents INTEGER NOT NULL,
    people_required INTEGER NOT NULL,
    from_country    BOOLEAN NOT NULL
)`

const recentIndex = `CREATE INDEX IF NOT EXISTS crawl_reports_crawled_at_idx ON crawl_reports (crawled_at DESC)`

const writeTimeout = 5 * time.Second

// Store writes crawl reports to the crawl_reports table.
type Store struct {
	client *postgres.Client
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
		db:     client.DB,
		logger: slog.Default().With("component", "report-store"),
	}
}

// EnsureSchema creates the crawl_reports table and its index if they do not
// exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("creating crawl_reports table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, recentIndex); err != nil {
			return fmt.Errorf("creating crawl_reports index: %w", err)
		}
		return nil
	})
}

func (s *Store) Report(ctx context.Context, r analytics.CrawlReport) error {
	err := resilience.WithTimeout(ctx, writeTimeout, "insert crawl report", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO crawl_reports
			    (run_id, crawled_at, duration_ms, branches, people_found, subject, added_documents, people_required, from_country)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.RunID, r.Timestamp.UTC(), r.Duration.Milliseconds(), r.Branches, r.PeopleFound,
			r.Subject, r.AddedDocuments, r.PeopleRequired, r.FromCountry,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving crawl report: %w", err)
	}
	s.logger.Debug("crawl report saved", "run_id", r.RunID, "subject", r.Subject)
	return nil
}

// Recent returns the last limit reports, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]analytics.CrawlReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, crawled_at, duration_ms, branches, people_found, subject, added_documents, people_required, from_country
		 FROM crawl_reports ORDER BY crawled_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing crawl reports: %w", err)
	}
	defer rows.Close()

	reports := make([]analytics.CrawlReport, 0, limit)
	for rows.Next() {
		var (
			r          analytics.CrawlReport
			durationMs int64
		)
		if err := rows.Scan(&r.RunID, &r.Timestamp, &durationMs, &r.Branches, &r.PeopleFound,
			&r.Subject, &r.AddedDocuments, &r.PeopleRequired, &r.FromCountry); err != nil {
			return nil, fmt.Errorf("scanning crawl report row: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
