// Package recommend ranks places against extracted preference categories by
// weighted embedding similarity.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/moim-labs/placerec/internal/embeddings"
	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/store"
)

// categoryWeights are fixed per-category importance weights. Not configurable
// at request time.
var categoryWeights = map[store.Category]float64{
	store.CategoryCompanion: 1.0,
	store.CategoryMenu:      0.8,
	store.CategoryMood:      0.6,
	store.CategoryPurpose:   0.4,
}

// maxRawScore is the highest achievable raw score: every category matching
// with similarity 1.0.
const maxRawScore = 1.0 + 0.8 + 0.6 + 0.4

// overfetchFactor widens per-category candidate fetches so a place outside the
// top-k in one category but strong in another is not discarded early.
const overfetchFactor = 3

// EmbeddingSearcher answers nearest-per-place queries scoped by category.
type EmbeddingSearcher interface {
	NearestPerPlace(ctx context.Context, category store.Category, query pgvector.Vector, limit int) ([]store.PlaceDistance, error)
}

// PlaceDirectory fetches place metadata for scored ids.
type PlaceDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) ([]store.Place, error)
}

// Result is a ranked recommendation outcome. Scores are raw weighted
// similarity sums; use AbsoluteScore to convert one to a 0-100 scale.
type Result struct {
	Places []store.Place
	Scores map[int64]float64
	Query  llm.Categories
}

// Scorer ranks places against a category query.
type Scorer struct {
	search   EmbeddingSearcher
	places   PlaceDirectory
	embedder embeddings.Provider
	defaultK int
	logger   *slog.Logger
}

// New creates a Scorer. defaultK is used when a caller passes k <= 0.
func New(search EmbeddingSearcher, places PlaceDirectory, embedder embeddings.Provider, defaultK int, logger *slog.Logger) *Scorer {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &Scorer{
		search:   search,
		places:   places,
		embedder: embedder,
		defaultK: defaultK,
		logger:   logger,
	}
}

// Recommend ranks places for the query, optionally restricted to a geo radius.
//
// Each non-empty category field is embedded as one whole string — never split
// on commas the way ingestion splits review values. Compound queries are
// compared as a single fingerprint against single-value stored entries; this
// asymmetry is load-bearing for ranking compatibility and must not be
// "fixed" to per-token matching.
//
// A failed embedding call aborts the whole request rather than degrading to
// the remaining categories, so partial scores never masquerade as full ones.
func (s *Scorer) Recommend(ctx context.Context, query llm.Categories, k int, geo *GeoFilter) (Result, error) {
	res := Result{Query: query}
	if query.Empty() {
		return res, nil
	}
	if k <= 0 {
		k = s.defaultK
	}

	scores := make(map[int64]float64)
	for _, cat := range store.Categories() {
		value := query.Value(cat)
		if value == "" {
			continue
		}

		vec, err := s.embedder.Embed(ctx, value)
		if err != nil {
			return Result{Query: query}, fmt.Errorf("embedding %s query: %w", cat, err)
		}

		candidates, err := s.search.NearestPerPlace(ctx, cat, vec, k*overfetchFactor)
		if err != nil {
			return Result{Query: query}, fmt.Errorf("searching %s candidates: %w", cat, err)
		}

		weight := categoryWeights[cat]
		for _, c := range candidates {
			// Cosine distance lives in [0,2]; map to similarity in [0,1].
			similarity := 1.0 - c.Distance/2.0
			scores[c.PlaceID] += similarity * weight
		}
	}

	if len(scores) == 0 {
		return res, nil
	}

	placeByID := make(map[int64]store.Place)
	if geo.complete() {
		ids := make([]int64, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		places, err := s.places.GetByIDs(ctx, ids)
		if err != nil {
			return Result{Query: query}, fmt.Errorf("fetching geo candidates: %w", err)
		}

		radius := geo.radius()
		filtered := make(map[int64]float64)
		for _, p := range places {
			d := haversineKm(*geo.Latitude, *geo.Longitude, p.Latitude, p.Longitude)
			if d <= radius { // boundary inclusive
				filtered[p.ID] = scores[p.ID]
				placeByID[p.ID] = p
			}
		}
		scores = filtered
		if len(scores) == 0 {
			return res, nil
		}
	}

	ranked := rankScores(scores)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	if len(placeByID) == 0 {
		ids := make([]int64, len(ranked))
		for i, r := range ranked {
			ids[i] = r.placeID
		}
		places, err := s.places.GetByIDs(ctx, ids)
		if err != nil {
			return Result{Query: query}, fmt.Errorf("fetching ranked places: %w", err)
		}
		for _, p := range places {
			placeByID[p.ID] = p
		}
	}

	res.Scores = make(map[int64]float64, len(ranked))
	for _, r := range ranked {
		p, ok := placeByID[r.placeID]
		if !ok {
			continue // scored embedding without a registry row
		}
		res.Places = append(res.Places, p)
		res.Scores[r.placeID] = r.score
	}

	s.logger.Debug("recommendation scored", "candidates", len(scores), "returned", len(res.Places))
	return res, nil
}

type rankedPlace struct {
	placeID int64
	score   float64
}

// rankScores orders by score descending, breaking ties by ascending place id
// so rankings are deterministic.
func rankScores(scores map[int64]float64) []rankedPlace {
	ranked := make([]rankedPlace, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, rankedPlace{placeID: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].placeID < ranked[j].placeID
	})
	return ranked
}

// AbsoluteScore converts a raw weighted score to a 0-100 scale rounded to two
// decimals.
func AbsoluteScore(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return math.Round(raw/maxRawScore*100*100) / 100
}
