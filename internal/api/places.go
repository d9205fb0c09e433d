package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/middleware"
	"github.com/moim-labs/placerec/internal/store"
)

// PlacesHandler provides place registry endpoints.
type PlacesHandler struct {
	places    *store.PlaceStore
	audit     *store.AuditStore
	publisher *events.Publisher
}

// NewPlacesHandler creates a new PlacesHandler.
func NewPlacesHandler(places *store.PlaceStore, audit *store.AuditStore, publisher *events.Publisher) *PlacesHandler {
	return &PlacesHandler{places: places, audit: audit, publisher: publisher}
}

type placeUpsertRequest struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Address   string   `json:"origin_address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Rating    *float64 `json:"rating"`
	Phone     *string  `json:"phone"`
}

// Upsert handles POST /api/v1/places. Place ids come from the external map
// service; an existing id has its mutable metadata overwritten.
func (h *PlacesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req placeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.ID <= 0 || req.Name == "" || req.Address == "" || req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "id, name, origin_address, latitude and longitude are required")
		return
	}
	if req.Category == "" {
		req.Category = "기타"
	}

	place := &store.Place{
		ID:        req.ID,
		Name:      req.Name,
		Category:  req.Category,
		Address:   req.Address,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Rating:    req.Rating,
		Phone:     req.Phone,
	}
	if err := h.places.Upsert(r.Context(), place); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to store place")
		return
	}

	clientID := middleware.ClientIDFromContext(r.Context())
	resourceID := strconv.FormatInt(place.ID, 10)
	if h.audit != nil {
		_ = h.audit.Log(r.Context(), store.ActionPlaceUpsert, clientID, &resourceID, true, nil)
	}

	if h.publisher != nil {
		_ = h.publisher.PlaceUpserted(r.Context(), place.ID, place.Name)
	}

	writeJSON(w, http.StatusOK, place)
}

// Get handles GET /api/v1/places/{id}.
func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid place id")
		return
	}

	place, err := h.places.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Place not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to fetch place")
		return
	}

	writeJSON(w, http.StatusOK, place)
}

// List handles GET /api/v1/places, optionally filtered by ?ids=1,2,3.
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	var places []store.Place
	var err error

	if idsParam := r.URL.Query().Get("ids"); idsParam != "" {
		var ids []int64
		for _, part := range strings.Split(idsParam, ",") {
			if id, perr := strconv.ParseInt(strings.TrimSpace(part), 10, 64); perr == nil {
				ids = append(ids, id)
			}
		}
		places, err = h.places.GetByIDs(r.Context(), ids)
	} else {
		var ids []int64
		ids, err = h.places.ListIDs(r.Context())
		if err == nil {
			places, err = h.places.GetByIDs(r.Context(), ids)
		}
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list places")
		return
	}
	if places == nil {
		places = []store.Place{}
	}

	writeJSON(w, http.StatusOK, places)
}
