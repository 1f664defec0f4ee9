package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/middleware"
)

const (
	ModeLive        = "live"
	ModePrecomputed = "precomputed"
)

// SearchService is satisfied by *searcher.Service.
type SearchService interface {
	SearchCountry(ctx context.Context, country, query string, people int) (*executor.SearchResult, error)
	SearchGeneric(ctx context.Context, query string, people int) (*executor.SearchResult, error)
	Precomputed(ctx context.Context, query string) (*executor.SearchResult, error)
	Reconstruct(ctx context.Context, country string, people int) (*analytics.CrawlReport, error)
	Indexes() ([]subject.IndexFile, error)
}

// CacheAdmin is satisfied by *cache.Store.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) (int64, error)
}

type Handler struct {
	service       SearchService
	cache         CacheAdmin
	defaultPeople int
	logger        *slog.Logger
}

// New builds the API handler. cache may be nil when resolution caching is
// disabled.
func New(service SearchService, cache CacheAdmin, defaultPeople int) *Handler {
	return &Handler{
		service:       service,
		cache:         cache,
		defaultPeople: defaultPeople,
		logger:        slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the search, index and cache routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/indexes", h.Indexes)
	mux.HandleFunc("POST /api/v1/indexes/{country}/reconstruct", h.Reconstruct)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	people, ok := h.people(w, r)
	if !ok {
		return
	}
	country := q.Get("country")
	mode := q.Get("mode")
	if mode == "" {
		mode = ModeLive
	}

	var (
		result *executor.SearchResult
		err    error
	)
	switch {
	case mode == ModePrecomputed && country != "":
		h.writeError(w, http.StatusBadRequest, "precomputed mode searches the generic pool and takes no country")
		return
	case mode == ModePrecomputed:
		result, err = h.service.Precomputed(ctx, query)
	case mode != ModeLive:
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
		return
	case country != "":
		result, err = h.service.SearchCountry(ctx, country, query, people)
	default:
		result, err = h.service.SearchGeneric(ctx, query, people)
	}
	if err != nil {
		h.fail(ctx, w, "search failed", err)
		return
	}

	logger.FromContext(ctx).Info("search completed",
		"query", query,
		"subject", result.Subject,
		"mode", mode,
		"found", result.Found,
		"total_hits", result.TotalHits,
		"crawled", result.Crawled,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", middleware.GetRequestID(ctx),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Indexes(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.Indexes()
	if err != nil {
		h.fail(r.Context(), w, "listing indexes failed", err)
		return
	}
	if files == nil {
		files = []subject.IndexFile{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"indexes": files})
}

func (h *Handler) Reconstruct(w http.ResponseWriter, r *http.Request) {
	people, ok := h.people(w, r)
	if !ok {
		return
	}
	report, err := h.service.Reconstruct(r.Context(), r.PathValue("country"), people)
	if err != nil {
		h.fail(r.Context(), w, "reconstruct failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	removed, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "removed": removed})
}

// people reads ?people=, falling back to the configured default. Range checks
// beyond positivity are left to the service.
func (h *Handler) people(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("people")
	if raw == "" {
		return h.defaultPeople, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		h.writeError(w, http.StatusBadRequest, "people must be a positive integer")
		return 0, false
	}
	return n, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error(msg, "error", err, "request_id", middleware.GetRequestID(ctx))
		h.writeError(w, status, msg)
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, status, appErr.Message)
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
