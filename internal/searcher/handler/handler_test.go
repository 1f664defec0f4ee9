package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/errors"
)

type call struct {
	op      string
	country string
	query   string
	people  int
}

type fakeService struct {
	calls  []call
	result *executor.SearchResult
	err    error
	files  []subject.IndexFile
}

func (f *fakeService) SearchCountry(_ context.Context, country, query string, people int) (*executor.SearchResult, error) {
	f.calls = append(f.calls, call{"country", country, query, people})
	return f.result, f.err
}

func (f *fakeService) SearchGeneric(_ context.Context, query string, people int) (*executor.SearchResult, error) {
	f.calls = append(f.calls, call{"generic", "", query, people})
	return f.result, f.err
}

func (f *fakeService) Precomputed(_ context.Context, query string) (*executor.SearchResult, error) {
	f.calls = append(f.calls, call{"precomputed", "", query, 0})
	return f.result, f.err
}

func (f *fakeService) Reconstruct(_ context.Context, country string, people int) (*analytics.CrawlReport, error) {
	f.calls = append(f.calls, call{"reconstruct", country, "", people})
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.CrawlReport{Subject: country, PeopleRequired: people, FromCountry: true}, nil
}

func (f *fakeService) Indexes() ([]subject.IndexFile, error) {
	return f.files, f.err
}

type fakeCache struct {
	hits, misses int64
	removed      int64
}

func (c *fakeCache) Stats() (int64, int64) { return c.hits, c.misses }

func (c *fakeCache) Invalidate(context.Context) (int64, error) { return c.removed, nil }

func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSearchRoutesByCountryAndMode(t *testing.T) {
	svc := &fakeService{result: &executor.SearchResult{Results: []string{}}}
	h := New(svc, nil, 50)

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/v1/search?q=poet&country=Greece&people=10").Code)
	require.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/v1/search?q=poet").Code)
	require.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/v1/search?q=poet&mode=precomputed").Code)

	assert.Equal(t, []call{
		{"country", "Greece", "poet", 10},
		{"generic", "", "poet", 50},
		{"precomputed", "", "poet", 0},
	}, svc.calls)
}

func TestSearchNoMatchIsOK(t *testing.T) {
	svc := &fakeService{result: &executor.SearchResult{Query: "xyzzy", Subject: "Generic", Results: []string{}}}
	rec := serve(t, New(svc, nil, 50), http.MethodGet, "/api/v1/search?q=xyzzy")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["found"])
	assert.Equal(t, []any{}, body["results"])
}

func TestSearchRejectsBadInput(t *testing.T) {
	h := New(&fakeService{}, nil, 50)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=poet&people=0",
		"/api/v1/search?q=poet&people=many",
		"/api/v1/search?q=poet&mode=batch",
		"/api/v1/search?q=poet&mode=precomputed&country=Greece",
	} {
		rec := serve(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decode(t, rec)["error"], target)
	}
}

func TestMapsServiceErrors(t *testing.T) {
	svc := &fakeService{err: apperrors.Newf(apperrors.ErrUnresolved, http.StatusNotFound, "country %q not found in the knowledge graph", "Atlantis")}
	rec := serve(t, New(svc, nil, 50), http.MethodPost, "/api/v1/indexes/Atlantis/reconstruct?people=20")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `country "Atlantis" not found in the knowledge graph`, decode(t, rec)["error"])

	svc.err = apperrors.New(apperrors.ErrCrawlInProgress, http.StatusConflict, "Greece is being crawled")
	rec = serve(t, New(svc, nil, 50), http.MethodGet, "/api/v1/search?q=poet&country=Greece")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReconstruct(t *testing.T) {
	svc := &fakeService{}
	rec := serve(t, New(svc, nil, 50), http.MethodPost, "/api/v1/indexes/Greece/reconstruct?people=20")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []call{{"reconstruct", "Greece", "", 20}}, svc.calls)
	body := decode(t, rec)
	assert.Equal(t, "Greece", body["subject"])
}

func TestIndexes(t *testing.T) {
	svc := &fakeService{files: []subject.IndexFile{{Subject: "Greece", Path: "Greece_index.tsv", Updated: "01/03/26 12:00:00"}}}
	rec := serve(t, New(svc, nil, 50), http.MethodGet, "/api/v1/indexes")

	require.Equal(t, http.StatusOK, rec.Code)
	indexes := decode(t, rec)["indexes"].([]any)
	require.Len(t, indexes, 1)

	rec = serve(t, New(&fakeService{}, nil, 50), http.MethodGet, "/api/v1/indexes")
	assert.Equal(t, []any{}, decode(t, rec)["indexes"])
}

func TestCacheEndpoints(t *testing.T) {
	rec := serve(t, New(&fakeService{}, nil, 50), http.MethodGet, "/api/v1/cache/stats")
	assert.Equal(t, "disabled", decode(t, rec)["status"])
	rec = serve(t, New(&fakeService{}, nil, 50), http.MethodPost, "/api/v1/cache/invalidate")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c := &fakeCache{hits: 3, misses: 1, removed: 7}
	rec = serve(t, New(&fakeService{}, c, 50), http.MethodGet, "/api/v1/cache/stats")
	assert.Equal(t, "75.0%", decode(t, rec)["hit_rate"])
	rec = serve(t, New(&fakeService{}, c, 50), http.MethodPost, "/api/v1/cache/invalidate")
	assert.Equal(t, float64(7), decode(t, rec)["removed"])
}
