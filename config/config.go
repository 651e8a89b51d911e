// Package config defines the application configuration structures.
//
// Separated from cmd so other packages (engine, ssh, analysis, tui) can
// depend on config without importing Cobra. All user files live under
// ~/.sqlsage: config.json, knowledge.json, history.db, logs/, outputs/.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application settings (~/.sqlsage/config.json).
type Config struct {
	Engines  []EngineConfig `json:"engines"`
	Executor ExecutorConfig `json:"executor"`
	AI       AIConfig       `json:"ai"`

	// KnowledgePath is the error/pattern knowledge base file.
	// Empty means ~/.sqlsage/knowledge.json.
	KnowledgePath string `json:"knowledge_path,omitempty"`

	// OutputDir receives chart artifacts. Empty means ~/.sqlsage/outputs.
	OutputDir string `json:"output_dir,omitempty"`

	// HistoryStore mirrors every attempt into ~/.sqlsage/history.db so
	// past sessions stay inspectable across runs.
	HistoryStore bool `json:"history_store"`

	dir string // resolved ~/.sqlsage, set by Load
}

// EngineConfig describes one configured query engine. Name is the
// identifier attempts are recorded under; Driver selects the adapter.
type EngineConfig struct {
	Name   string `json:"name"`
	Driver string `json:"driver"` // "sqlite" or "postgres"

	// sqlite: database file path, or ":memory:".
	Path string `json:"path,omitempty"`

	// postgres connection settings.
	Host     string    `json:"host,omitempty"`
	Port     int       `json:"port,omitempty"`
	User     string    `json:"user,omitempty"`
	Password string    `json:"password,omitempty"`
	Database string    `json:"database,omitempty"`
	SSLMode  string    `json:"ssl_mode,omitempty"`
	SSH      SSHConfig `json:"ssh,omitempty"`

	// MaxRows caps how many result rows an adapter returns (0 = 1000).
	MaxRows int `json:"max_rows,omitempty"`
}

// DSN builds a pgx-compatible connection string. When an SSH tunnel is
// active the caller overrides Host/Port with the local tunnel endpoint.
func (c EngineConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

// SSHConfig holds SSH tunnel settings for a warehouse engine.
type SSHConfig struct {
	Enabled       bool   `json:"enabled,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          int    `json:"port,omitempty"`
	User          string `json:"user,omitempty"`
	Password      string `json:"password,omitempty"`
	KeyPath       string `json:"key_path,omitempty"`
	KeyPassphrase string `json:"key_passphrase,omitempty"`
}

// ExecutorConfig tunes the attempt/correction/fallback loop.
type ExecutorConfig struct {
	// PrimaryEngine names the engine tried first. Remaining configured
	// engines form the fallback chain in listed order.
	PrimaryEngine string `json:"primary_engine"`

	// EnableFallback allows moving to the next engine after the current
	// one is given up on.
	EnableFallback bool `json:"enable_fallback"`

	// MaxCorrections bounds SQL corrections per engine. Zero disables
	// correction entirely.
	MaxCorrections int `json:"max_corrections_per_engine"`

	// AttemptTimeoutSecs is the deadline for a single execution attempt.
	AttemptTimeoutSecs int `json:"per_attempt_timeout_secs"`
}

// AttemptTimeout returns the per-attempt deadline as a duration.
func (c ExecutorConfig) AttemptTimeout() time.Duration {
	if c.AttemptTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AttemptTimeoutSecs) * time.Second
}

// Dir returns ~/.sqlsage, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, ".sqlsage")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// Default returns the out-of-the-box configuration: a single embedded
// SQLite engine, fallback on, two corrections per engine, 30s attempts.
func Default() *Config {
	return &Config{
		Engines: []EngineConfig{
			{Name: "embedded", Driver: "sqlite"},
		},
		Executor: ExecutorConfig{
			PrimaryEngine:      "embedded",
			EnableFallback:     true,
			MaxCorrections:     2,
			AttemptTimeoutSecs: 30,
		},
		AI:           DefaultAIConfig(),
		HistoryStore: true,
	}
}

// Load reads ~/.sqlsage/config.json, falling back to defaults when the
// file is missing. Environment variables override stored API keys.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.dir = dir

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			cfg.resolvePaths()
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.dir = dir
	cfg.applyEnv()
	cfg.resolvePaths()
	return cfg, nil
}

// Save writes the config to ~/.sqlsage/config.json.
func (c *Config) Save() error {
	dir := c.dir
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// Engine retrieves a configured engine by name.
func (c *Config) Engine(name string) (EngineConfig, bool) {
	for _, e := range c.Engines {
		if e.Name == name {
			return e, true
		}
	}
	return EngineConfig{}, false
}

// EngineNames returns the configured engine names in listed order.
func (c *Config) EngineNames() []string {
	names := make([]string, 0, len(c.Engines))
	for _, e := range c.Engines {
		names = append(names, e.Name)
	}
	return names
}

// HistoryFile returns the attempt store path.
func (c *Config) HistoryFile() string {
	dir := c.dir
	if dir == "" {
		if d, err := Dir(); err == nil {
			dir = d
		}
	}
	return filepath.Join(dir, "history.db")
}

// resolvePaths fills defaults that depend on the config directory.
func (c *Config) resolvePaths() {
	if c.KnowledgePath == "" {
		c.KnowledgePath = filepath.Join(c.dir, "knowledge.json")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.dir, "outputs")
	}
	for i := range c.Engines {
		e := &c.Engines[i]
		if e.Driver == "sqlite" && e.Path == "" {
			e.Path = filepath.Join(c.dir, "data.db")
		}
	}
}
