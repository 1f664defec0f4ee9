// Package searcher answers keyword queries over subject indexes, crawling the
// knowledge graph first when an index is missing, stale or, for generic
// searches, on every request.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
)

const (
	modeCountry     = "country"
	modeGeneric     = "generic"
	modeReconstruct = "reconstruct"
)

type Service struct {
	cfg      config.CrawlerConfig
	router   *subject.Router
	resolver *resolver.Resolver
	crawler  *crawler.Crawler
	executor *executor.Executor
	reporter analytics.Reporter
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now for staleness checks and file timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(
	cfg config.CrawlerConfig,
	router *subject.Router,
	res *resolver.Resolver,
	cr *crawler.Crawler,
	reporter analytics.Reporter,
	opts ...Option,
) *Service {
	if reporter == nil {
		reporter = analytics.Discard
	}
	s := &Service{
		cfg:      cfg,
		router:   router,
		resolver: res,
		crawler:  cr,
		executor: executor.New(),
		reporter: reporter,
		now:      time.Now,
		logger:   slog.Default().With("component", "search-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshResult tells whether a subject was re-crawled and, if so, how.
type RefreshResult struct {
	Subject string                 `json:"subject"`
	Crawled bool                   `json:"crawled"`
	Report  *analytics.CrawlReport `json:"report,omitempty"`
}

// SearchCountry answers query from the index of country, crawling the country
// first when its index file is missing or stale. A country the graph does not
// know, with no index on disk, yields an empty result rather than an error.
func (s *Service) SearchCountry(ctx context.Context, country, query string, people int) (*executor.SearchResult, error) {
	country = strings.TrimSpace(country)
	if err := subject.Validate(country); err != nil {
		return nil, err
	}
	plan := parser.Parse(query)
	if plan.Empty() {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query has no keywords")
	}
	people, err := s.validatePeople(people)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithRunID(ctx, uuid.NewString())

	refresh, err := s.Refresh(ctx, country, people)
	if errors.Is(err, apperrors.ErrUnresolved) {
		logger.FromContext(ctx).Info("country not found, nothing to search", "country", country)
		result := s.executor.Execute(emptyIndex{}, country, query, plan.Terms)
		s.recordOutcome(result)
		return result, nil
	}
	if err != nil {
		s.metrics.Searched("error")
		return nil, err
	}
	d := s.resolver.Disambiguate(ctx, plan.Keywords)
	result := s.executor.Execute(s.router.Engine(country), country, query, d.Terms)
	result.Crawled = refresh.Crawled
	s.recordOutcome(result)
	return result, nil
}

// SearchGeneric resolves the keywords, crawls from every resolved seed into
// the shared generic pool and answers query from it. Nothing is crawled when
// no keyword resolves.
func (s *Service) SearchGeneric(ctx context.Context, query string, people int) (*executor.SearchResult, error) {
	plan := parser.Parse(query)
	if plan.Empty() {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query has no keywords")
	}
	people, err := s.validatePeople(people)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithRunID(ctx, uuid.NewString())
	log := logger.FromContext(ctx).With("component", "search-service")

	d := s.resolver.Disambiguate(ctx, plan.Keywords)
	engine := s.router.Engine(subject.Generic)
	if len(d.Seeds) == 0 {
		log.Info("no keyword resolved, skipping crawl", "keywords", plan.Keywords)
		result := s.executor.Execute(noMatch{engine}, subject.Generic, query, d.Terms)
		s.recordOutcome(result)
		return result, nil
	}

	release, err := s.router.Acquire(subject.Generic)
	if err != nil {
		return nil, err
	}
	defer release()

	perSeed := max(people/len(plan.Keywords), 1)
	crawlCtx := context.WithoutCancel(ctx)
	for _, seed := range d.Seeds {
		s.crawlInto(crawlCtx, engine, seed, resolver.RefineTerm(seed), perSeed, modeGeneric, false)
	}

	result := s.executor.Execute(engine, subject.Generic, query, d.Terms)
	result.Crawled = true
	s.recordOutcome(result)
	return result, nil
}

// Precomputed answers query from the generic pool as it stands, without
// crawling.
func (s *Service) Precomputed(ctx context.Context, query string) (*executor.SearchResult, error) {
	plan := parser.Parse(query)
	if plan.Empty() {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query has no keywords")
	}
	d := s.resolver.Disambiguate(ctx, plan.Keywords)
	result := s.executor.Execute(s.router.Engine(subject.Generic), subject.Generic, query, d.Terms)
	s.recordOutcome(result)
	return result, nil
}

// Reconstruct deletes the index of country and rebuilds it from a fresh crawl
// of people persons.
func (s *Service) Reconstruct(ctx context.Context, country string, people int) (*analytics.CrawlReport, error) {
	country = strings.TrimSpace(country)
	if err := subject.Validate(country); err != nil {
		return nil, err
	}
	if country == subject.Generic {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "the generic pool cannot be reconstructed")
	}
	people, err := s.validatePeople(people)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithRunID(ctx, uuid.NewString())

	release, err := s.router.Acquire(country)
	if err != nil {
		return nil, err
	}
	defer release()

	seed, ok := s.resolver.ResolveCountry(ctx, country)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnresolved, http.StatusNotFound, "country %q not found in the knowledge graph", country)
	}
	engine, err := s.router.Reset(country)
	if err != nil {
		return nil, fmt.Errorf("resetting %s index: %w", country, err)
	}
	report := s.crawlInto(context.WithoutCancel(ctx), engine, seed, country, people, modeReconstruct, true)
	return &report, nil
}

// Refresh re-crawls country when its index file is missing or stale.
func (s *Service) Refresh(ctx context.Context, country string, people int) (*RefreshResult, error) {
	if err := subject.Validate(country); err != nil {
		return nil, err
	}
	people, err := s.validatePeople(people)
	if err != nil {
		return nil, err
	}
	if logger.RunID(ctx) == "" {
		ctx = logger.WithRunID(ctx, uuid.NewString())
	}
	out := &RefreshResult{Subject: country}
	if !s.needsCrawl(country) {
		return out, nil
	}

	release, err := s.router.Acquire(country)
	if err != nil {
		return nil, err
	}
	defer release()
	if !s.needsCrawl(country) {
		return out, nil
	}

	engine := s.router.Engine(country)
	seed, ok := s.resolver.ResolveCountry(ctx, country)
	if !ok {
		if engine.DocCount() > 0 {
			logger.FromContext(ctx).Warn("country did not resolve, serving stale index", "country", country)
			return out, nil
		}
		return nil, apperrors.Newf(apperrors.ErrUnresolved, http.StatusNotFound, "country %q not found in the knowledge graph", country)
	}
	report := s.crawlInto(context.WithoutCancel(ctx), engine, seed, country, people, modeCountry, true)
	out.Crawled = true
	out.Report = &report
	return out, nil
}

// Indexes lists the persisted country indexes.
func (s *Service) Indexes() ([]subject.IndexFile, error) {
	return s.router.ListCountryFiles()
}

func (s *Service) needsCrawl(country string) bool {
	path := s.router.Path(country)
	if !store.Exists(path) {
		return true
	}
	ts, err := store.ReadTimestamp(path)
	if err != nil {
		s.logger.Warn("could not read index timestamp", "path", path, "error", err)
		return false
	}
	return store.IsStale(ts, s.cfg.StaleAfter, s.now())
}

// crawlInto runs one crawl into engine, persists the subject file and reports
// the crawl. Persist and report failures are logged only.
func (s *Service) crawlInto(ctx context.Context, engine *indexer.Engine, seed, label string, people int, mode string, fromCountry bool) analytics.CrawlReport {
	log := logger.FromContext(ctx).With("component", "search-service", "subject", engine.Subject())
	res := s.crawler.Crawl(ctx, seed, people, engine)
	s.metrics.ObserveCrawl(mode, res.Duration)

	now := s.now()
	if err := engine.Persist(s.router.Path(engine.Subject()), now); err != nil {
		s.metrics.IndexSaved("error")
		log.Error("index not saved, keeping in-memory state", "error", err)
	} else {
		s.metrics.IndexSaved("ok")
	}
	s.metrics.SetDocuments(engine.Subject(), engine.DocCount())

	report := analytics.CrawlReport{
		RunID:          logger.RunID(ctx),
		Timestamp:      now,
		Duration:       res.Duration,
		Branches:       res.Branches,
		PeopleFound:    res.PeopleFound,
		Subject:        label,
		AddedDocuments: res.Added,
		PeopleRequired: people,
		FromCountry:    fromCountry,
	}
	analytics.Deliver(ctx, s.reporter, report)
	return report
}

func (s *Service) validatePeople(people int) (int, error) {
	if people <= 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "people must be positive, got %d", people)
	}
	if s.cfg.MaxPeople > 0 && people > s.cfg.MaxPeople {
		return s.cfg.MaxPeople, nil
	}
	return people, nil
}

func (s *Service) recordOutcome(result *executor.SearchResult) {
	if result.Found {
		s.metrics.Searched("match")
	} else {
		s.metrics.Searched("no_match")
	}
}

// noMatch reports the size of an index while matching nothing.
type noMatch struct {
	executor.Matcher
}

func (noMatch) Match([]string) []string { return nil }

type emptyIndex struct{}

func (emptyIndex) Match([]string) []string { return nil }
func (emptyIndex) DocCount() int { return 0 }

// IsBusy reports whether err means another crawl holds the subject.
func IsBusy(err error) bool {
	return errors.Is(err, apperrors.ErrCrawlInProgress)
}
