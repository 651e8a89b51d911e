package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Engines) != 1 {
		t.Fatalf("got %d engines, want 1", len(cfg.Engines))
	}
	if cfg.Engines[0].Name != "embedded" || cfg.Engines[0].Driver != "sqlite" {
		t.Errorf("got default engine %+v, want embedded sqlite", cfg.Engines[0])
	}
	if cfg.Engines[0].Path == "" {
		t.Error("default sqlite engine should get a resolved path")
	}
	if cfg.Executor.PrimaryEngine != "embedded" {
		t.Errorf("got primary %q, want embedded", cfg.Executor.PrimaryEngine)
	}
	if !cfg.Executor.EnableFallback {
		t.Error("fallback should default to enabled")
	}
	if cfg.Executor.MaxCorrections != 2 {
		t.Errorf("got max corrections %d, want 2", cfg.Executor.MaxCorrections)
	}
	if cfg.AI.Provider != "offline" {
		t.Errorf("got provider %q, want offline", cfg.AI.Provider)
	}
	if cfg.AI.Temperature != 0.2 || cfg.AI.MaxTokens != 4096 {
		t.Errorf("got sampling %v/%d, want 0.2/4096", cfg.AI.Temperature, cfg.AI.MaxTokens)
	}
	if cfg.KnowledgePath == "" || cfg.OutputDir == "" {
		t.Error("knowledge path and output dir should be resolved")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg.Engines = append(cfg.Engines, EngineConfig{
		Name:     "warehouse",
		Driver:   "postgres",
		Host:     "db.internal",
		Port:     5432,
		User:     "analyst",
		Database: "metrics",
		SSLMode:  "require",
	})
	cfg.Executor.MaxCorrections = 3
	cfg.AI.Provider = "anthropic"
	cfg.AI.Anthropic.APIKey = "sk-test"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if len(loaded.Engines) != 2 {
		t.Fatalf("got %d engines, want 2", len(loaded.Engines))
	}
	wh, ok := loaded.Engine("warehouse")
	if !ok {
		t.Fatal("warehouse engine not found after round trip")
	}
	if wh.Host != "db.internal" || wh.Port != 5432 {
		t.Errorf("got %s:%d, want db.internal:5432", wh.Host, wh.Port)
	}
	if loaded.Executor.MaxCorrections != 3 {
		t.Errorf("got max corrections %d, want 3", loaded.Executor.MaxCorrections)
	}
	if loaded.AI.Anthropic.APIKey != "sk-test" {
		t.Errorf("got api key %q, want sk-test", loaded.AI.Anthropic.APIKey)
	}
}

func TestEnvOverridesStoredKey(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".sqlsage")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	body := `{"ai":{"provider":"openai","openai":{"api_key":"stored","model":"gpt-4o"}}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.OpenAI.APIKey != "from-env" {
		t.Errorf("got %q, want from-env", cfg.AI.OpenAI.APIKey)
	}
}

func TestDSN(t *testing.T) {
	c := EngineConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "sage",
		Password: "secret",
		Database: "analytics",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=sage password=secret dbname=analytics sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAttemptTimeout(t *testing.T) {
	tests := []struct {
		secs int
		want time.Duration
	}{
		{0, 30 * time.Second},
		{-5, 30 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		c := ExecutorConfig{AttemptTimeoutSecs: tt.secs}
		if got := c.AttemptTimeout(); got != tt.want {
			t.Errorf("AttemptTimeout(%d) = %v, want %v", tt.secs, got, tt.want)
		}
	}
}

func TestEngineLookup(t *testing.T) {
	cfg := &Config{Engines: []EngineConfig{
		{Name: "embedded", Driver: "sqlite"},
		{Name: "warehouse", Driver: "postgres"},
	}}

	if _, ok := cfg.Engine("warehouse"); !ok {
		t.Error("warehouse should be found")
	}
	if _, ok := cfg.Engine("missing"); ok {
		t.Error("missing engine should not be found")
	}
	names := cfg.EngineNames()
	if len(names) != 2 || names[0] != "embedded" || names[1] != "warehouse" {
		t.Errorf("got names %v, want [embedded warehouse]", names)
	}
}
