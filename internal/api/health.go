// Package api provides HTTP handlers for the placerec REST API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/store"
)

// HealthHandler provides health and stats endpoints.
type HealthHandler struct {
	db         *store.DB
	places     *store.PlaceStore
	reviews    *store.ReviewStore
	embeddings *store.EmbeddingStore
	events     *events.Client
	startTime  time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *store.DB, places *store.PlaceStore, reviews *store.ReviewStore, embeddingStore *store.EmbeddingStore, eventsClient *events.Client) *HealthHandler {
	return &HealthHandler{
		db:         db,
		places:     places,
		reviews:    reviews,
		embeddings: embeddingStore,
		events:     eventsClient,
		startTime:  time.Now(),
	}
}

// Health returns the service health status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "connected"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "disconnected"
	}

	eventsStatus := "disconnected"
	if h.events != nil && h.events.IsConnected() {
		eventsStatus = "connected"
	}

	placeCount, _ := h.places.Count(ctx)

	resp := map[string]any{
		"status":         "healthy",
		"database":       dbStatus,
		"events":         eventsStatus,
		"place_count":    placeCount,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}

	if dbStatus == "disconnected" {
		resp["status"] = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats returns detailed service statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	placeCount, _ := h.places.Count(ctx)
	reviewCount, _ := h.reviews.Count(ctx)
	embeddingCounts, _ := h.embeddings.CountByCategory(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"place_count":            placeCount,
		"review_count":           reviewCount,
		"embeddings_by_category": embeddingCounts,
		"uptime_seconds":         int(time.Since(h.startTime).Seconds()),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
