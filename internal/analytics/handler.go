package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// RecentLister returns the latest persisted reports, newest first.
type RecentLister interface {
	Recent(ctx context.Context, limit int) ([]CrawlReport, error)
}

type Handler struct {
	aggregator *Aggregator
	history    RecentLister
	logger     *slog.Logger
}

// NewHandler serves aggregate stats and, when history is non-nil, the latest
// persisted reports.
func NewHandler(aggregator *Aggregator, history RecentLister) *Handler {
	return &Handler{
		aggregator: aggregator,
		history:    history,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "report history is not enabled"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	reports, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing crawl reports failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list crawl reports"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
