package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Address != ":8000" {
		t.Fatalf("unexpected default address: %q", cfg.Server.Address)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected default model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.HistorySize != 5 {
		t.Fatalf("unexpected default history size: %d", cfg.LLM.HistorySize)
	}
	if cfg.Sources.NewsAPI.MaxArticles != 5 {
		t.Fatalf("unexpected default max articles: %d", cfg.Sources.NewsAPI.MaxArticles)
	}
	if len(cfg.Sources.NewsAPI.ReputableSources) != 15 {
		t.Fatalf("unexpected default source list length: %d", len(cfg.Sources.NewsAPI.ReputableSources))
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("telemetry should default on")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEWSAPI_API_KEY", "news-test")
	t.Setenv("GEOBRIEF_ADDR", ":9999")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("OPENAI_API_KEY not applied: %q", cfg.LLM.APIKey)
	}
	if cfg.Sources.NewsAPI.APIKey != "news-test" {
		t.Fatalf("NEWSAPI_API_KEY not applied: %q", cfg.Sources.NewsAPI.APIKey)
	}
	if cfg.Server.Address != ":9999" {
		t.Fatalf("GEOBRIEF_ADDR not applied: %q", cfg.Server.Address)
	}
}

func TestLoadConfigCapsMaxArticles(t *testing.T) {
	t.Setenv("GEOBRIEF_MAX_ARTICLES", "50")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sources.NewsAPI.MaxArticles != 5 {
		t.Fatalf("max articles not capped: %d", cfg.Sources.NewsAPI.MaxArticles)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geobrief.yaml")
	content := `
server:
  address: ":7070"
llm:
  model: gpt-4o-mini
sources:
  newsapi:
    max_articles: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("file address not applied: %q", cfg.Server.Address)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("file model not applied: %q", cfg.LLM.Model)
	}
	if cfg.Sources.NewsAPI.MaxArticles != 3 {
		t.Fatalf("file max articles not applied: %d", cfg.Sources.NewsAPI.MaxArticles)
	}
	// defaults still fill the gaps
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("defaults missing for unset keys: %q", cfg.LLM.BaseURL)
	}
}
