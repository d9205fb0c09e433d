package store

import (
	"context"
	"fmt"
	"time"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	ActionPlaceUpsert  AuditAction = "place.upsert"
	ActionReviewIngest AuditAction = "review.ingest"
	ActionRecommend    AuditAction = "recommend"
	ActionCrawl        AuditAction = "crawl"
)

// AuditEntry represents an audit log record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     AuditAction    `json:"action"`
	ClientID   string         `json:"client_id"`
	ResourceID *string        `json:"resource_id,omitempty"`
	Success    bool           `json:"success"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditStore provides audit logging operations.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log writes an audit log entry.
func (s *AuditStore) Log(ctx context.Context, action AuditAction, clientID string, resourceID *string, success bool, metadata map[string]any) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO audit_log (action, client_id, resource_id, success, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		action, clientID, resourceID, success, metadata,
	)
	if err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Query retrieves recent audit log entries, optionally filtered by action.
func (s *AuditStore) Query(ctx context.Context, action *AuditAction, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, action, client_id, resource_id, success, metadata, created_at
		FROM audit_log WHERE 1=1`
	var args []any
	argN := 1

	if action != nil {
		query += fmt.Sprintf(" AND action = $%d", argN)
		args = append(args, *action)
		argN++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.ClientID, &e.ResourceID,
			&e.Success, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
