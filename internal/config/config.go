// Package config provides environment-based configuration for placerec.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the placerec service.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Database (PostgreSQL with pgvector)
	DatabaseURL string

	// OpenAI
	OpenAIAPIKey         string
	OpenAIChatModel      string
	OpenAIEmbeddingModel string
	EmbeddingBackend     string // "openai" or "simple"

	// NATS event bus (optional)
	NatsURL string

	// Recommendation
	TopK            int           // default result count when the caller omits limit
	GeoRadiusKm     float64       // default geo filter radius
	ExternalTimeout time.Duration // per-call bound on OpenAI requests

	// Crawling
	CrawlerBin         string // interpreter/binary for crawler scripts
	PlaceCrawlScript   string
	ReviewCrawlScript  string
	MaxReviewsPerPlace int

	// Rate limiting
	RecommendRateLimit int // requests per minute
	CrawlRateLimit     int // requests per minute
	RateWindow         time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	c := &Config{
		Port:                 envInt("PLACEREC_PORT", 8000),
		LogLevel:             envStr("PLACEREC_LOG_LEVEL", "info"),
		DatabaseURL:          envStr("DATABASE_URL", ""),
		OpenAIAPIKey:         envStr("OPENAI_API_KEY", ""),
		OpenAIChatModel:      envStr("OPENAI_RESPONSE_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBackend:     envStr("EMBEDDING_BACKEND", "openai"),
		NatsURL:              envStr("NATS_URL", ""),
		TopK:                 envInt("RECOMMENDATION_TOP_K", 5),
		GeoRadiusKm:          envFloat("RECOMMENDATION_RADIUS_KM", 10.0),
		ExternalTimeout:      time.Duration(envInt("OPENAI_TIMEOUT_SECONDS", 30)) * time.Second,
		CrawlerBin:           envStr("CRAWLER_BIN", "python3"),
		PlaceCrawlScript:     envStr("PLACE_CRAWL_SCRIPT", "scripts/naver_crawl.py"),
		ReviewCrawlScript:    envStr("REVIEW_CRAWL_SCRIPT", "scripts/review_crawl.py"),
		MaxReviewsPerPlace:   envInt("MAX_REVIEWS_PER_PLACE", 100),
		RecommendRateLimit:   envInt("RECOMMEND_RATE_LIMIT", 30),
		CrawlRateLimit:       envInt("CRAWL_RATE_LIMIT", 5),
		RateWindow:           time.Minute,
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if c.EmbeddingBackend == "openai" && c.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding backend")
	}
	if c.TopK <= 0 {
		return nil, fmt.Errorf("RECOMMENDATION_TOP_K must be positive")
	}

	return c, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
