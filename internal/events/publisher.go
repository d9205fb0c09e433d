package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher publishes placerec events.
type Publisher struct {
	client *Client
	logger *slog.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Event is the standard envelope published to NATS.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func (p *Publisher) publish(_ context.Context, subject, eventType string, data any) error {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "placerec",
		Timestamp: time.Now(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.client.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	p.logger.Debug("published event", "subject", subject, "type", eventType)
	return nil
}

// PlaceUpserted publishes a place registry update event.
func (p *Publisher) PlaceUpserted(ctx context.Context, placeID int64, name string) error {
	return p.publish(ctx, "placerec.place.upserted", "place.upserted", map[string]any{
		"place_id": placeID,
		"name":     name,
	})
}

// ReviewIngested publishes an ingestion outcome event.
func (p *Publisher) ReviewIngested(ctx context.Context, placeID int64, inserted, skipped int) error {
	return p.publish(ctx, "placerec.review.ingested", "review.ingested", map[string]any{
		"place_id": placeID,
		"inserted": inserted,
		"skipped":  skipped,
	})
}

// RecommendationServed publishes a recommendation event (for analytics).
func (p *Publisher) RecommendationServed(ctx context.Context, clientID string, resultCount int) error {
	return p.publish(ctx, "placerec.recommendation.served", "recommendation.served", map[string]any{
		"client_id":    clientID,
		"result_count": resultCount,
	})
}

// CrawlCompleted publishes a crawl job summary event.
func (p *Publisher) CrawlCompleted(ctx context.Context, jobID string, places, failures int) error {
	return p.publish(ctx, "placerec.crawl.completed", "crawl.completed", map[string]any{
		"job_id":   jobID,
		"places":   places,
		"failures": failures,
	})
}
