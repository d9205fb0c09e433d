// Package crawl orchestrates external crawler processes and feeds their
// output into the place registry and the ingestion pipeline.
package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/store"
)

// ReviewIngestor is the slice of the ingestion pipeline the runner needs.
type ReviewIngestor interface {
	Ingest(ctx context.Context, placeID int64, reviewText string) (inserted, skipped int, err error)
}

// PlaceSummary reports one place crawl job.
type PlaceSummary struct {
	JobID         string `json:"job_id"`
	PlacesFetched int    `json:"places_fetched"`
	PlacesSkipped int    `json:"places_skipped"`
}

// ReviewSummary reports one review crawl job. Failures are per place so batch
// callers can report partial progress.
type ReviewSummary struct {
	JobID             string `json:"job_id"`
	PlacesProcessed   int    `json:"places_processed"`
	EmbeddingsCreated int    `json:"embeddings_created"`
	ReviewFailures    int    `json:"review_failures"`
}

// crawledPlace is one entry of the place crawler's JSON output.
type crawledPlace struct {
	PlaceID       string   `json:"place_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	OriginAddress string   `json:"origin_address"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// crawledReview is one entry of the review crawler's JSON output.
type crawledReview struct {
	ReviewID string   `json:"review_id"`
	Author   string   `json:"author"`
	Content  string   `json:"content"`
	Rating   *float64 `json:"rating"`
}

// Runner shells out to the crawler scripts and ingests their JSON output.
type Runner struct {
	bin          string
	placeScript  string
	reviewScript string
	places       *store.PlaceStore
	reviews      *store.ReviewStore
	ingestor     ReviewIngestor
	publisher    *events.Publisher // nil disables event publishing
	logger       *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(bin, placeScript, reviewScript string, places *store.PlaceStore, reviews *store.ReviewStore, ingestor ReviewIngestor, publisher *events.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		bin:          bin,
		placeScript:  placeScript,
		reviewScript: reviewScript,
		places:       places,
		reviews:      reviews,
		ingestor:     ingestor,
		publisher:    publisher,
		logger:       logger,
	}
}

func (r *Runner) runCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("crawler failed: %s", msg)
	}
	return bytes.TrimSpace(stdout.Bytes()), nil
}

// CrawlPlaces runs the place crawler for a search query and registers new
// places. Places already in the registry are skipped, not overwritten — a
// re-crawl of existing metadata goes through the upsert endpoint instead.
func (r *Runner) CrawlPlaces(ctx context.Context, query string) (PlaceSummary, error) {
	summary := PlaceSummary{JobID: uuid.NewString()}

	out, err := r.runCommand(ctx, r.placeScript, "--query", query, "--json-output")
	if err != nil {
		return summary, err
	}

	places, err := parsePlaces(out)
	if err != nil {
		return summary, err
	}

	for _, p := range places {
		if _, err := r.places.Get(ctx, p.ID); err == nil {
			summary.PlacesSkipped++
			continue
		}
		if err := r.places.Upsert(ctx, &p); err != nil {
			return summary, err
		}
		summary.PlacesFetched++
	}

	if r.publisher != nil {
		_ = r.publisher.CrawlCompleted(ctx, summary.JobID, summary.PlacesFetched, 0)
	}

	r.logger.Info("place crawl finished", "job_id", summary.JobID,
		"fetched", summary.PlacesFetched, "skipped", summary.PlacesSkipped)
	return summary, nil
}

// CrawlReviews runs the review crawler for the given places (all stored places
// when ids is empty), persists raw reviews, and ingests each review's text
// into the embedding store. A crawl failure for one place is counted and the
// job moves on.
func (r *Runner) CrawlReviews(ctx context.Context, placeIDs []int64, maxCount int) (ReviewSummary, error) {
	summary := ReviewSummary{JobID: uuid.NewString()}

	ids := dedupeIDs(placeIDs)
	if len(ids) == 0 {
		var err error
		ids, err = r.places.ListIDs(ctx)
		if err != nil {
			return summary, err
		}
	}

	for _, placeID := range ids {
		out, err := r.runCommand(ctx, r.reviewScript,
			"--place-id", strconv.FormatInt(placeID, 10),
			"--max-count", strconv.Itoa(maxCount),
			"--json-output")
		if err != nil {
			summary.ReviewFailures++
			r.logger.Warn("review crawl failed", "place_id", placeID, "error", err)
			continue
		}

		reviews, err := parseReviews(out)
		if err != nil {
			summary.ReviewFailures++
			r.logger.Warn("review output unparsable", "place_id", placeID, "error", err)
			continue
		}
		if len(reviews) == 0 {
			continue
		}

		summary.PlacesProcessed++
		var placeInserted, placeSkipped int
		for _, rev := range reviews {
			content := strings.TrimSpace(rev.Content)
			if content == "" {
				continue
			}

			review := &store.Review{PlaceID: placeID, ReviewID: rev.ReviewID, Content: content, Rating: rev.Rating}
			if rev.Author != "" {
				review.Author = &rev.Author
			}
			if err := r.reviews.Insert(ctx, review); err != nil && !errors.Is(err, store.ErrConflict) {
				summary.ReviewFailures++
				continue
			}

			inserted, skipped, err := r.ingestor.Ingest(ctx, placeID, content)
			if err != nil {
				summary.ReviewFailures++
				r.logger.Warn("review ingest failed", "place_id", placeID, "error", err)
				continue
			}
			placeInserted += inserted
			placeSkipped += skipped
		}
		summary.EmbeddingsCreated += placeInserted

		if r.publisher != nil {
			_ = r.publisher.ReviewIngested(ctx, placeID, placeInserted, placeSkipped)
		}
	}

	if r.publisher != nil {
		_ = r.publisher.CrawlCompleted(ctx, summary.JobID, summary.PlacesProcessed, summary.ReviewFailures)
	}

	r.logger.Info("review crawl finished", "job_id", summary.JobID,
		"places", summary.PlacesProcessed,
		"embeddings", summary.EmbeddingsCreated,
		"failures", summary.ReviewFailures)
	return summary, nil
}

// parsePlaces decodes the crawler's JSON output, dropping entries without a
// numeric id, an address, or coordinates.
func parsePlaces(data []byte) ([]store.Place, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []crawledPlace
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing place crawl output: %w", err)
	}

	var places []store.Place
	for _, p := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(p.PlaceID), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		address := p.OriginAddress
		if address == "" {
			address = p.Address
		}
		if address == "" || p.Latitude == nil || p.Longitude == nil {
			continue
		}
		category := p.Category
		if category == "" {
			category = "기타"
		}
		places = append(places, store.Place{
			ID:        id,
			Name:      p.Name,
			Category:  category,
			Address:   address,
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
		})
	}
	return places, nil
}

// parseReviews decodes the review crawler's JSON output.
func parseReviews(data []byte) ([]crawledReview, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []crawledReview
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing review crawl output: %w", err)
	}
	return raw, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
