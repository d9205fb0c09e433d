package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// CategoryEmbedding is one stored (place, category, value) fact with its vector.
// Rows are immutable after creation and removed only by cascade when the place
// is deleted.
type CategoryEmbedding struct {
	ID        int64           `json:"id"`
	PlaceID   int64           `json:"place_id"`
	Category  Category        `json:"category"`
	ValueText string          `json:"value_text"`
	Embedding pgvector.Vector `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlaceDistance is one row of a nearest-per-place query: the best (smallest)
// cosine distance among a place's stored values for one category.
type PlaceDistance struct {
	PlaceID  int64
	Distance float64
}

// EmbeddingTx is the transactional view of the embedding store used by the
// ingestion pipeline.
type EmbeddingTx interface {
	Exists(ctx context.Context, placeID int64, category Category, value string) (bool, error)
	Insert(ctx context.Context, placeID int64, category Category, value string, embedding pgvector.Vector) error
}

// EmbeddingStore owns the review_embeddings table.
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// InTx runs fn against a transactional view of the store. All inserts made
// through the view commit together or not at all.
func (s *EmbeddingStore) InTx(ctx context.Context, fn func(tx EmbeddingTx) error) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(embeddingTx{db: tx})
	})
}

// Exists reports whether the (place, category, value) triple is already stored.
func (s *EmbeddingStore) Exists(ctx context.Context, placeID int64, category Category, value string) (bool, error) {
	return embeddingTx{db: s.db.Pool}.Exists(ctx, placeID, category, value)
}

// NearestPerPlace computes, for one category, the smallest cosine distance
// between the query vector and each place's stored values, returning the
// closest `limit` places in ascending distance order.
func (s *EmbeddingStore) NearestPerPlace(ctx context.Context, category Category, query pgvector.Vector, limit int) ([]PlaceDistance, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT place_id, MIN(embedding <=> $1) AS distance
		FROM review_embeddings
		WHERE category = $2
		GROUP BY place_id
		ORDER BY distance
		LIMIT $3
	`, query, category, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest per place (%s): %w", category, err)
	}
	defer rows.Close()

	var result []PlaceDistance
	for rows.Next() {
		var pd PlaceDistance
		if err := rows.Scan(&pd.PlaceID, &pd.Distance); err != nil {
			return nil, fmt.Errorf("scan nearest row: %w", err)
		}
		result = append(result, pd)
	}
	return result, rows.Err()
}

// CountByCategory returns the number of stored embeddings per category.
func (s *EmbeddingStore) CountByCategory(ctx context.Context) (map[Category]int, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT category, COUNT(*) FROM review_embeddings GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("counting embeddings: %w", err)
	}
	defer rows.Close()

	counts := make(map[Category]int)
	for rows.Next() {
		var c Category
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// embeddingTx implements EmbeddingTx over any DBTX (pool or transaction).
type embeddingTx struct {
	db DBTX
}

func (t embeddingTx) Exists(ctx context.Context, placeID int64, category Category, value string) (bool, error) {
	var exists bool
	err := t.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM review_embeddings
			WHERE place_id = $1 AND category = $2 AND value_text = $3
		)
	`, placeID, category, value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking embedding existence: %w", err)
	}
	return exists, nil
}

// Insert stores a new triple. A duplicate returns ErrConflict rather than a
// database error: ON CONFLICT DO NOTHING makes the insert race-safe, so two
// concurrent ingestions of the same fact leave exactly one row behind.
func (t embeddingTx) Insert(ctx context.Context, placeID int64, category Category, value string, embedding pgvector.Vector) error {
	tag, err := t.db.Exec(ctx, `
		INSERT INTO review_embeddings (place_id, category, value_text, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (place_id, category, value_text) DO NOTHING
	`, placeID, category, value, embedding)
	if err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
