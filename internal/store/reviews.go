package store

import (
	"context"
	"fmt"
	"time"
)

// Review is raw crawled review text tied to a place. The external review id is
// unique so repeated crawl runs insert each review at most once.
type Review struct {
	ID        int64      `json:"id"`
	PlaceID   int64      `json:"place_id"`
	ReviewID  string     `json:"review_id"`
	Author    *string    `json:"author,omitempty"`
	Content   string     `json:"content"`
	Rating    *float64   `json:"rating,omitempty"`
	VisitDate *time.Time `json:"visit_date,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	CrawledAt time.Time  `json:"crawled_at"`
}

// ReviewStore provides review registry operations.
type ReviewStore struct {
	db *DB
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(db *DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Insert stores a review. Returns ErrConflict if the external review id is
// already stored.
func (s *ReviewStore) Insert(ctx context.Context, r *Review) error {
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO reviews (place_id, review_id, author, content, rating, visit_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (review_id) DO NOTHING
	`, r.PlaceID, r.ReviewID, r.Author, r.Content, r.Rating, r.VisitDate, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting review %s: %w", r.ReviewID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// ListByPlace returns all stored reviews for a place, oldest first.
func (s *ReviewStore) ListByPlace(ctx context.Context, placeID int64) ([]Review, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, place_id, review_id, author, content, rating, visit_date, created_at, crawled_at
		FROM reviews WHERE place_id = $1 ORDER BY id
	`, placeID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for place %d: %w", placeID, err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.PlaceID, &r.ReviewID, &r.Author, &r.Content,
			&r.Rating, &r.VisitDate, &r.CreatedAt, &r.CrawledAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// Count returns the number of stored reviews.
func (s *ReviewStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}
