package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/middleware"
	"github.com/moim-labs/placerec/internal/recommend"
	"github.com/moim-labs/placerec/internal/store"
)

// QueryResolver turns a free-text query into categories and an optional location.
type QueryResolver interface {
	ExtractQueryCategories(ctx context.Context, query string) (llm.Categories, error)
	ExtractQueryLocation(ctx context.Context, query string) (*llm.Location, error)
}

// RecommendService ranks places for a category query.
type RecommendService interface {
	Recommend(ctx context.Context, query llm.Categories, k int, geo *recommend.GeoFilter) (recommend.Result, error)
}

// RecommendHandler provides recommendation endpoints.
type RecommendHandler struct {
	resolver  QueryResolver
	scorer    RecommendService
	audit     *store.AuditStore
	publisher *events.Publisher
	radiusKm  float64
	logger    *slog.Logger
}

// NewRecommendHandler creates a new RecommendHandler.
func NewRecommendHandler(resolver QueryResolver, scorer RecommendService, audit *store.AuditStore, publisher *events.Publisher, radiusKm float64, logger *slog.Logger) *RecommendHandler {
	if radiusKm <= 0 {
		radiusKm = recommend.DefaultRadiusKm
	}
	return &RecommendHandler{
		resolver:  resolver,
		scorer:    scorer,
		audit:     audit,
		publisher: publisher,
		radiusKm:  radiusKm,
		logger:    logger,
	}
}

type recommendationRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RadiusKm  float64  `json:"radius_km"`
}

type recommendationItem struct {
	store.Place
	Score float64 `json:"score"`
}

type recommendationMeta struct {
	ExtractedCategories llm.Categories `json:"extracted_categories"`
}

type recommendationResponse struct {
	Items []recommendationItem `json:"items"`
	Meta  recommendationMeta   `json:"meta"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query is required")
		return
	}
	if req.Limit < 0 || req.Limit > 20 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be between 1 and 20")
		return
	}

	result, status, code := h.recommend(r.Context(), req)
	if code != "" {
		writeError(w, status, code, "Recommendation failed")
		return
	}

	items := make([]recommendationItem, 0, len(result.Places))
	for _, p := range result.Places {
		items = append(items, recommendationItem{Place: p, Score: result.Scores[p.ID]})
	}

	writeJSON(w, http.StatusOK, recommendationResponse{
		Items: items,
		Meta:  recommendationMeta{ExtractedCategories: result.Query},
	})
}

// recommend resolves the query and runs the scorer; shared by both endpoints.
// On failure it returns an HTTP status and error code, distinct from the
// empty-result cases which succeed with no items.
func (h *RecommendHandler) recommend(ctx context.Context, req recommendationRequest) (recommend.Result, int, string) {
	categories, err := h.resolver.ExtractQueryCategories(ctx, req.Query)
	if err != nil {
		h.logger.Error("query extraction failed", "error", err)
		return recommend.Result{}, http.StatusBadGateway, "EXTRACTION_ERROR"
	}

	geo := h.resolveGeo(ctx, req)

	result, err := h.scorer.Recommend(ctx, categories, req.Limit, geo)
	if err != nil {
		h.logger.Error("recommendation failed", "error", err)
		return recommend.Result{}, http.StatusBadGateway, "RECOMMENDATION_ERROR"
	}

	clientID := middleware.ClientIDFromContext(ctx)
	if h.audit != nil {
		_ = h.audit.Log(ctx, store.ActionRecommend, clientID, nil, true, map[string]any{
			"result_count": len(result.Places),
		})
	}
	if h.publisher != nil {
		_ = h.publisher.RecommendationServed(ctx, clientID, len(result.Places))
	}

	return result, http.StatusOK, ""
}

// resolveGeo builds the geo filter. Explicit request coordinates win over a
// location extracted from the query text; an incomplete filter is no filter.
func (h *RecommendHandler) resolveGeo(ctx context.Context, req recommendationRequest) *recommend.GeoFilter {
	radius := req.RadiusKm
	if radius <= 0 {
		radius = h.radiusKm
	}

	if req.Latitude != nil && req.Longitude != nil {
		return &recommend.GeoFilter{Latitude: req.Latitude, Longitude: req.Longitude, RadiusKm: radius}
	}

	loc, err := h.resolver.ExtractQueryLocation(ctx, req.Query)
	if err != nil {
		h.logger.Warn("location extraction failed, skipping geo filter", "error", err)
		return nil
	}
	if loc == nil {
		return nil
	}
	return &recommend.GeoFilter{Latitude: &loc.Latitude, Longitude: &loc.Longitude, RadiusKm: radius}
}

// placeRecommendRequest is the backend-integration request shape.
type placeRecommendRequest struct {
	Query     string   `json:"query"`
	PromiseID *int64   `json:"promise_id"`
	Limit     int      `json:"limit"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type placeRecommendItem struct {
	PlaceID   string  `json:"place_id"`
	PlaceName string  `json:"place_name"`
	Category  string  `json:"category"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AIScore   float64 `json:"ai_score"`
}

type placeRecommendResponse struct {
	PromiseID       *int64               `json:"promise_id"`
	Recommendations []placeRecommendItem `json:"recommendations"`
}

// RecommendForIntegration handles POST /recommend-places — the flat response
// shape consumed by the backend service, with scores on an absolute 0-100 scale.
func (h *RecommendHandler) RecommendForIntegration(w http.ResponseWriter, r *http.Request) {
	var req placeRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query is required")
		return
	}

	result, status, code := h.recommend(r.Context(), recommendationRequest{
		Query:     req.Query,
		Limit:     req.Limit,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if code != "" {
		writeError(w, status, code, "Recommendation failed")
		return
	}

	recommendations := make([]placeRecommendItem, 0, len(result.Places))
	for _, p := range result.Places {
		recommendations = append(recommendations, placeRecommendItem{
			PlaceID:   strconv.FormatInt(p.ID, 10),
			PlaceName: p.Name,
			Category:  p.Category,
			Address:   p.Address,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			AIScore:   recommend.AbsoluteScore(result.Scores[p.ID]),
		})
	}

	writeJSON(w, http.StatusOK, placeRecommendResponse{
		PromiseID:       req.PromiseID,
		Recommendations: recommendations,
	})
}
