package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Place is crawled place metadata. IDs are assigned by the external map
// service, never generated here.
type Place struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Address     string     `json:"origin_address"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Rating      *float64   `json:"rating,omitempty"`
	ReviewCount int        `json:"review_count"`
	Phone       *string    `json:"phone,omitempty"`
	CrawledAt   time.Time  `json:"crawled_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PlaceStore provides place registry operations.
type PlaceStore struct {
	db *DB
}

// NewPlaceStore creates a new PlaceStore.
func NewPlaceStore(db *DB) *PlaceStore {
	return &PlaceStore{db: db}
}

// Upsert inserts a place or overwrites its mutable metadata if the id exists.
func (s *PlaceStore) Upsert(ctx context.Context, p *Place) error {
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO places (id, name, category, origin_address, latitude, longitude, rating, review_count, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			origin_address = EXCLUDED.origin_address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			phone = EXCLUDED.phone,
			updated_at = now()
		RETURNING crawled_at, updated_at
	`, p.ID, p.Name, p.Category, p.Address, p.Latitude, p.Longitude, p.Rating, p.ReviewCount, p.Phone).
		Scan(&p.CrawledAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting place %d: %w", p.ID, err)
	}
	return nil
}

// Get fetches a place by id. Returns ErrNotFound if it does not exist.
func (s *PlaceStore) Get(ctx context.Context, id int64) (*Place, error) {
	p := &Place{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, category, origin_address, latitude, longitude, rating, review_count, phone, crawled_at, updated_at
		FROM places WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Address, &p.Latitude, &p.Longitude,
		&p.Rating, &p.ReviewCount, &p.Phone, &p.CrawledAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get place %d: %w", id, err)
	}
	return p, nil
}

// GetByIDs fetches all places matching the given ids, in no particular order.
func (s *PlaceStore) GetByIDs(ctx context.Context, ids []int64) ([]Place, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, category, origin_address, latitude, longitude, rating, review_count, phone, crawled_at, updated_at
		FROM places WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get places by ids: %w", err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Address, &p.Latitude, &p.Longitude,
			&p.Rating, &p.ReviewCount, &p.Phone, &p.CrawledAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan place row: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// ListIDs returns every stored place id in ascending order.
func (s *PlaceStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id FROM places ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing place ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan place id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of stored places.
func (s *PlaceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM places`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting places: %w", err)
	}
	return n, nil
}
