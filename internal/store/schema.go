package store

import (
	"context"
	"fmt"
)

// schemaStatements create the tables placerec owns. The uniqueness constraint on
// (place_id, category, value_text) is load-bearing: ingestion relies on it for
// race-safe deduplication, not on application-level existence checks.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS places (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(100) NOT NULL,
		origin_address TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		rating DOUBLE PRECISION,
		review_count INTEGER NOT NULL DEFAULT 0,
		phone VARCHAR(50),
		crawled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
		review_id VARCHAR(100) NOT NULL UNIQUE,
		author VARCHAR(100),
		content TEXT NOT NULL,
		rating DOUBLE PRECISION,
		visit_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ,
		crawled_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_place_id ON reviews (place_id)`,

	`CREATE TABLE IF NOT EXISTS review_embeddings (
		id BIGSERIAL PRIMARY KEY,
		place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
		category VARCHAR(50) NOT NULL,
		value_text TEXT NOT NULL,
		embedding vector(1536) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_review_category_value UNIQUE (place_id, category, value_text)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_embeddings_category ON review_embeddings (category)`,
	`CREATE INDEX IF NOT EXISTS idx_review_embeddings_vector
		ON review_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		action VARCHAR(50) NOT NULL,
		client_id VARCHAR(100) NOT NULL,
		resource_id VARCHAR(100),
		success BOOLEAN NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate ensures all tables, constraints and indexes exist.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
