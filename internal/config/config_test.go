package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placerec")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected default TopK 5, got %d", cfg.TopK)
	}
	if cfg.OpenAIChatModel != "gpt-4o-mini" {
		t.Errorf("unexpected chat model %q", cfg.OpenAIChatModel)
	}
	if cfg.OpenAIEmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model %q", cfg.OpenAIEmbeddingModel)
	}
	if cfg.GeoRadiusKm != 10.0 {
		t.Errorf("expected default radius 10, got %v", cfg.GeoRadiusKm)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
}

func TestLoad_RequiresAPIKeyForOpenAIBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placerec")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EMBEDDING_BACKEND", "openai")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without OPENAI_API_KEY")
	}
}

func TestLoad_SimpleBackendNeedsNoAPIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placerec")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EMBEDDING_BACKEND", "simple")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EmbeddingBackend != "simple" {
		t.Errorf("unexpected backend %q", cfg.EmbeddingBackend)
	}
}

func TestLoad_RejectsNonPositiveTopK(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placerec")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RECOMMENDATION_TOP_K", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for TopK 0")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PLACEREC_TEST_STR", "value")
	if got := envStr("PLACEREC_TEST_STR", "def"); got != "value" {
		t.Errorf("envStr: got %q", got)
	}
	if got := envStr("PLACEREC_TEST_MISSING", "def"); got != "def" {
		t.Errorf("envStr default: got %q", got)
	}

	t.Setenv("PLACEREC_TEST_INT", "12")
	if got := envInt("PLACEREC_TEST_INT", 3); got != 12 {
		t.Errorf("envInt: got %d", got)
	}
	t.Setenv("PLACEREC_TEST_BAD_INT", "twelve")
	if got := envInt("PLACEREC_TEST_BAD_INT", 3); got != 3 {
		t.Errorf("envInt fallback: got %d", got)
	}
}
