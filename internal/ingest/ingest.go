// Package ingest turns raw review text into category embeddings, exactly once
// per distinct (place, category, value) fact.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moim-labs/placerec/internal/embeddings"
	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/store"
)

// Store is the slice of the embedding store the pipeline needs: a
// transactional view whose inserts commit together or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(tx store.EmbeddingTx) error) error
}

// Extractor extracts categories from review text.
type Extractor interface {
	ExtractCategories(ctx context.Context, text string) (llm.Categories, error)
}

// Ingestor drives the extractor and embedder to populate the embedding store.
type Ingestor struct {
	store     Store
	extractor Extractor
	embedder  embeddings.Provider
	logger    *slog.Logger
}

// New creates an Ingestor.
func New(st Store, extractor Extractor, embedder embeddings.Provider, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:     st,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger,
	}
}

// Ingest extracts categories from one review and stores an embedding for each
// distinct value not already known for the place. Already-stored facts are
// skipped without calling the embedder — re-ingesting the same review is the
// common case and must not burn metered embedding calls.
//
// All inserts of one call are committed atomically: any extraction, embedding
// or insert failure leaves the store untouched and returns zero counts.
func (i *Ingestor) Ingest(ctx context.Context, placeID int64, reviewText string) (inserted, skipped int, err error) {
	cats, err := i.extractor.ExtractCategories(ctx, reviewText)
	if err != nil {
		return 0, 0, fmt.Errorf("extracting categories for place %d: %w", placeID, err)
	}

	err = i.store.InTx(ctx, func(tx store.EmbeddingTx) error {
		for _, cat := range store.Categories() {
			for _, value := range splitValues(cats.Value(cat)) {
				exists, err := tx.Exists(ctx, placeID, cat, value)
				if err != nil {
					return err
				}
				if exists {
					skipped++
					continue
				}

				vec, err := i.embedder.Embed(ctx, value)
				if err != nil {
					return fmt.Errorf("embedding %s value %q: %w", cat, value, err)
				}

				if err := tx.Insert(ctx, placeID, cat, value, vec); err != nil {
					if errors.Is(err, store.ErrConflict) {
						// Lost a race with a concurrent ingest of the same
						// fact. The constraint already guarantees one row.
						skipped++
						continue
					}
					return err
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("ingesting review for place %d: %w", placeID, err)
	}

	i.logger.Debug("review ingested", "place_id", placeID, "inserted", inserted, "skipped", skipped)
	return inserted, skipped, nil
}

// splitValues splits a comma-separated extractor value into trimmed, distinct
// tokens, preserving first-seen order. A review must not create two rows for
// the same trimmed value even if the extractor repeats it.
func splitValues(value string) []string {
	if value == "" {
		return nil
	}
	seen := make(map[string]bool)
	var tokens []string
	for _, part := range strings.Split(value, ",") {
		tok := strings.TrimSpace(part)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}
