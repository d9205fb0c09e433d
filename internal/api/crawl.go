package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moim-labs/placerec/internal/crawl"
	"github.com/moim-labs/placerec/internal/middleware"
	"github.com/moim-labs/placerec/internal/store"
)

// CrawlRunner triggers crawler jobs.
type CrawlRunner interface {
	CrawlPlaces(ctx context.Context, query string) (crawl.PlaceSummary, error)
	CrawlReviews(ctx context.Context, placeIDs []int64, maxCount int) (crawl.ReviewSummary, error)
}

// CrawlHandler provides crawl orchestration endpoints.
type CrawlHandler struct {
	runner     CrawlRunner
	audit      *store.AuditStore
	maxReviews int
	logger     *slog.Logger
}

// NewCrawlHandler creates a new CrawlHandler.
func NewCrawlHandler(runner CrawlRunner, audit *store.AuditStore, maxReviews int, logger *slog.Logger) *CrawlHandler {
	if maxReviews <= 0 {
		maxReviews = 100
	}
	return &CrawlHandler{runner: runner, audit: audit, maxReviews: maxReviews, logger: logger}
}

type placeCrawlRequest struct {
	Query string `json:"query"`
}

// CrawlPlaces handles POST /api/v1/crawl.
func (h *CrawlHandler) CrawlPlaces(w http.ResponseWriter, r *http.Request) {
	var req placeCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query is required")
		return
	}

	summary, err := h.runner.CrawlPlaces(r.Context(), req.Query)
	clientID := middleware.ClientIDFromContext(r.Context())
	if h.audit != nil {
		_ = h.audit.Log(r.Context(), store.ActionCrawl, clientID, nil, err == nil, map[string]any{
			"query": req.Query,
		})
	}
	if err != nil {
		h.logger.Error("place crawl failed", "query", req.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "CRAWL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type reviewCrawlRequest struct {
	PlaceIDs []int64 `json:"place_ids"`
	MaxCount int     `json:"max_count"`
}

// CrawlReviews handles POST /api/v1/crawl/reviews. Without place_ids it crawls
// reviews for every stored place.
func (h *CrawlHandler) CrawlReviews(w http.ResponseWriter, r *http.Request) {
	var req reviewCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.MaxCount <= 0 || req.MaxCount > 200 {
		req.MaxCount = h.maxReviews
	}

	summary, err := h.runner.CrawlReviews(r.Context(), req.PlaceIDs, req.MaxCount)
	clientID := middleware.ClientIDFromContext(r.Context())
	if h.audit != nil {
		_ = h.audit.Log(r.Context(), store.ActionReviewIngest, clientID, nil, err == nil, map[string]any{
			"places_processed": summary.PlacesProcessed,
			"review_failures":  summary.ReviewFailures,
		})
	}
	if err != nil {
		h.logger.Error("review crawl failed", "error", err)
		writeError(w, http.StatusInternalServerError, "CRAWL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
