// Package server provides the HTTP server setup for placerec.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/moim-labs/placerec/internal/api"
	"github.com/moim-labs/placerec/internal/config"
	"github.com/moim-labs/placerec/internal/crawl"
	"github.com/moim-labs/placerec/internal/embeddings"
	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/ingest"
	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/middleware"
	"github.com/moim-labs/placerec/internal/recommend"
	"github.com/moim-labs/placerec/internal/store"
)

// Server holds all dependencies for the placerec HTTP server.
type Server struct {
	Router *chi.Mux
	Config *config.Config
	DB     *store.DB
	Events *events.Client
	Logger *slog.Logger
}

// New creates a new Server with all routes configured.
func New(cfg *config.Config, db *store.DB, eventsClient *events.Client, embedder embeddings.Provider, extractor llm.Extractor, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.ClientIdentity())
	r.Use(middleware.RequestLogging(logger))

	// Stores
	placeStore := store.NewPlaceStore(db)
	reviewStore := store.NewReviewStore(db)
	embeddingStore := store.NewEmbeddingStore(db)
	auditStore := store.NewAuditStore(db)

	// Publisher (may be nil if NATS not available)
	var publisher *events.Publisher
	if eventsClient != nil {
		publisher = events.NewPublisher(eventsClient, logger)
	}

	// Core
	ingestor := ingest.New(embeddingStore, extractor, embedder, logger)
	scorer := recommend.New(embeddingStore, placeStore, embedder, cfg.TopK, logger)
	runner := crawl.NewRunner(cfg.CrawlerBin, cfg.PlaceCrawlScript, cfg.ReviewCrawlScript,
		placeStore, reviewStore, ingestor, publisher, logger)

	// Handlers
	healthHandler := api.NewHealthHandler(db, placeStore, reviewStore, embeddingStore, eventsClient)
	placesHandler := api.NewPlacesHandler(placeStore, auditStore, publisher)
	recommendHandler := api.NewRecommendHandler(extractor, scorer, auditStore, publisher, cfg.GeoRadiusKm, logger)
	crawlHandler := api.NewCrawlHandler(runner, auditStore, cfg.MaxReviewsPerPlace, logger)

	// Rate limiters
	recommendRL := middleware.NewRateLimiter(cfg.RecommendRateLimit, cfg.RateWindow)
	crawlRL := middleware.NewRateLimiter(cfg.CrawlRateLimit, cfg.RateWindow)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (no rate limit)
		r.Get("/health", healthHandler.Health)
		r.Get("/stats", healthHandler.Stats)

		// Place registry
		r.Route("/places", func(r chi.Router) {
			r.Post("/", placesHandler.Upsert)
			r.Get("/", placesHandler.List)
			r.Get("/{id}", placesHandler.Get)
		})

		// Recommendations
		r.Route("/recommendations", func(r chi.Router) {
			r.Use(recommendRL.Middleware)
			r.Post("/", recommendHandler.Recommend)
		})

		// Crawl orchestration
		r.Route("/crawl", func(r chi.Router) {
			r.Use(crawlRL.Middleware)
			r.Post("/", crawlHandler.CrawlPlaces)
			r.Post("/reviews", crawlHandler.CrawlReviews)
		})
	})

	// Backend integration endpoint, registered at the root path for
	// compatibility with the consuming service.
	r.With(recommendRL.Middleware).Post("/recommend-places", recommendHandler.RecommendForIntegration)

	return &Server{
		Router: r,
		Config: cfg,
		DB:     db,
		Events: eventsClient,
		Logger: logger,
	}
}
