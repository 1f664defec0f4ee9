package searcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph/graphtest"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/errors"
)

const (
	ns       = "http://dbpedia.org/resource/"
	greece   = ns + "Greece"
	elytis   = ns + "Odysseas_Elytis"
	callas   = ns + "Maria_Callas"
	einstein = ns + "Albert_Einstein"
)

type fixture struct {
	svc     *Service
	port    *graphtest.Port
	router  *subject.Router
	dir     string
	now     time.Time
	mu      sync.Mutex
	reports []analytics.CrawlReport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		port: graphtest.New(),
		dir:  t.TempDir(),
		now:  time.Date(2024, time.May, 10, 12, 0, 0, 0, time.Local),
	}
	router, err := subject.NewRouter(f.dir)
	require.NoError(t, err)
	f.router = router

	f.port.OnValues(graph.CountryQuery("Greece"), graph.VarCountry, greece)
	f.port.OnValues(graph.PersonNeighborsQuery(greece), graph.VarResource, elytis, callas)
	f.port.OnValues(graph.AbstractQuery(elytis), graph.VarText, "Greek poet")
	f.port.OnValues(graph.AbstractQuery(callas), graph.VarText, "Greek soprano")

	f.port.OnValues(graph.LabelLookupQuery("Physicist"), graph.VarURI, ns+"Physicist")
	f.port.OnValues(graph.ExistsQuery(ns+"Physicist"), graph.VarProperty, "p")
	f.port.OnValues(graph.PersonNeighborsQuery(ns+"Physicist"), graph.VarResource, einstein)
	f.port.OnValues(graph.AbstractQuery(einstein), graph.VarText, "German physicist, relativity")

	cfg := config.CrawlerConfig{RecursionLimit: 3, StaleAfter: 24 * time.Hour, MaxPeople: 300, DefaultPeople: 50, StopPercent: 100}
	cr := crawler.New(f.port, crawler.Config{RecursionLimit: 3, StopPercent: 100, MaxPeople: 300, Namespace: ns})
	reporter := analytics.ReporterFunc(func(_ context.Context, r analytics.CrawlReport) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reports = append(f.reports, r)
		return nil
	})
	f.svc = New(cfg, router, resolver.New(f.port, ns), cr, reporter, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) personQueries() int {
	return f.port.Count("foaf:Person")
}

func TestSearchCountryCrawlsMissingIndex(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.SearchCountry(context.Background(), "Greece", "the poet", 10)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Crawled)
	assert.Equal(t, []string{elytis}, res.Results)

	assert.FileExists(t, filepath.Join(f.dir, "Greece_index.tsv"))
	require.Len(t, f.reports, 1)
	r := f.reports[0]
	assert.Equal(t, "Greece", r.Subject)
	assert.True(t, r.FromCountry)
	assert.Equal(t, 2, r.PeopleFound)
	assert.Equal(t, 2, r.AddedDocuments)
	assert.Equal(t, 10, r.PeopleRequired)
	assert.NotEmpty(t, r.RunID)
}

func TestSearchCountryReusesFreshIndex(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	require.NoError(t, err)
	before := f.personQueries()

	f.now = f.now.Add(23 * time.Hour)
	res, err := f.svc.SearchCountry(context.Background(), "Greece", "soprano", 10)
	require.NoError(t, err)
	assert.False(t, res.Crawled)
	assert.Equal(t, []string{callas}, res.Results)
	assert.Equal(t, before, f.personQueries())
}

func TestSearchCountryRecrawlsStaleIndex(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	require.NoError(t, err)

	f.now = f.now.Add(24 * time.Hour)
	res, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	require.NoError(t, err)
	assert.True(t, res.Crawled)
	assert.Len(t, f.reports, 2)
	assert.Zero(t, f.reports[1].AddedDocuments)

	ts, err := store.ReadTimestamp(filepath.Join(f.dir, "Greece_index.tsv"))
	require.NoError(t, err)
	assert.Equal(t, store.FormatTimestamp(f.now), ts)
}

func TestSearchCountryCorruptTimestampIsNotStale(t *testing.T) {
	f := newFixture(t)
	content := "not a timestamp\npoet\t" + elytis + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "Greece_index.tsv"), []byte(content), 0o644))

	res, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	require.NoError(t, err)
	assert.False(t, res.Crawled)
	assert.Equal(t, []string{elytis}, res.Results)
	assert.Zero(t, f.personQueries())
}

func TestSearchCountryUnknownCountryFindsNothing(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SearchCountry(context.Background(), "Atlantis", "poet", 10)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.Crawled)
	assert.Equal(t, "Atlantis", res.Subject)
	assert.Empty(t, res.Results)
	assert.Zero(t, res.IndexSize)
	assert.Zero(t, f.personQueries())
}

func TestSearchCountryRejectsConcurrentCrawl(t *testing.T) {
	f := newFixture(t)
	release, err := f.router.Acquire("Greece")
	require.NoError(t, err)
	defer release()

	_, err = f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	assert.ErrorIs(t, err, apperrors.ErrCrawlInProgress)
	assert.True(t, IsBusy(err))
}

func TestSearchValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.svc.SearchCountry(context.Background(), "Greece", "the of", 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.svc.SearchCountry(context.Background(), "../x", "poet", 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.svc.SearchGeneric(context.Background(), "", 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSearchGenericCrawlsResolvedKeywords(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.SearchGeneric(context.Background(), "physicist", 10)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []string{einstein}, res.Results)
	assert.Equal(t, subject.Generic, res.Subject)
	assert.FileExists(t, filepath.Join(f.dir, "Generic_index.tsv"))

	require.Len(t, f.reports, 1)
	assert.Equal(t, "physicist", f.reports[0].Subject)
	assert.False(t, f.reports[0].FromCountry)
	assert.Equal(t, 10, f.reports[0].PeopleRequired)
}

func TestSearchGenericSplitsPeopleAcrossKeywords(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchGeneric(context.Background(), "physicist zzxq relativity", 10)
	require.NoError(t, err)
	require.Len(t, f.reports, 1)
	assert.Equal(t, 3, f.reports[0].PeopleRequired)
}

func TestSearchGenericWithoutResolvedKeywordDoesNotCrawl(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SearchGeneric(context.Background(), "zzxq", 10)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.Crawled)
	assert.Zero(t, f.personQueries())
	assert.Empty(t, f.reports)
}

func TestPrecomputedUsesGenericPool(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Precomputed(context.Background(), "relativity")
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = f.svc.SearchGeneric(context.Background(), "physicist", 10)
	require.NoError(t, err)
	before := f.personQueries()

	res, err = f.svc.Precomputed(context.Background(), "relativity")
	require.NoError(t, err)
	assert.Equal(t, []string{einstein}, res.Results)
	assert.Equal(t, before, f.personQueries())
}

func TestReconstructRebuildsCountryFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "Greece_index.tsv")
	require.NoError(t, store.Save(path, []store.Entry{{Term: "obsolete", URIs: []string{ns + "Nobody"}}}, f.now))

	report, err := f.svc.Reconstruct(context.Background(), "Greece", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PeopleFound)
	assert.Equal(t, 5, report.PeopleRequired)

	snap, err := store.Load(path)
	require.NoError(t, err)
	for _, e := range snap.Entries {
		assert.NotEqual(t, "obsolete", e.Term)
	}
	res, err := f.svc.SearchCountry(context.Background(), "Greece", "obsolete", 5)
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestReconstructValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconstruct(context.Background(), subject.Generic, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.svc.Reconstruct(context.Background(), "Atlantis", 5)
	assert.ErrorIs(t, err, apperrors.ErrUnresolved)
}

func TestIndexesListsCountries(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchCountry(context.Background(), "Greece", "poet", 10)
	require.NoError(t, err)
	_, err = f.svc.SearchGeneric(context.Background(), "physicist", 10)
	require.NoError(t, err)

	files, err := f.svc.Indexes()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Greece", files[0].Subject)
}
