// Package config loads balitool configuration from a YAML file with
// environment variable overrides for secrets and endpoints.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all balitool configuration.
type Config struct {
	// Bubble Data API access
	Bubble BubbleConfig `yaml:"bubble"`

	// Vector search index
	Index IndexConfig `yaml:"index"`

	// Embedding engine
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Permissions / prompt-cache database
	Permissions PermissionsConfig `yaml:"permissions"`

	// Prompt template publishing
	PromptHub PromptHubConfig `yaml:"prompt_hub"`

	// Category mapping overrides (opaque platform ID -> category name)
	CategoryMap map[string]string `yaml:"category_map"`

	// Privacy rule extensions (merged with the built-in rule set)
	Privacy PrivacyConfig `yaml:"privacy"`
}

// IndexConfig configures the vector index store.
type IndexConfig struct {
	// Path to the SQLite database file. ":memory:" is accepted for tests.
	DatabasePath string `yaml:"database_path"`
}

// PermissionsConfig configures the relational permissions store.
type PermissionsConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// PrivacyConfig extends the built-in privacy rules.
type PrivacyConfig struct {
	// Extra blocked keywords (case-insensitive substring match).
	BlockKeywords []string `yaml:"block_keywords"`
	// Extra redacted keywords.
	RedactKeywords []string `yaml:"redact_keywords"`
	// Extra warn-only keywords.
	WarnKeywords []string `yaml:"warn_keywords"`
}

// DefaultConfig returns a configuration with sensible defaults.
// API tokens are expected from the environment.
func DefaultConfig() *Config {
	return &Config{
		Bubble: BubbleConfig{
			BaseURL:  "https://app.bali.love/api/1.1/obj",
			PageSize: 100,
			Timeout:  "30s",
		},
		Index: IndexConfig{
			DatabasePath: filepath.Join(".balitool", "index.db"),
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			OpenAIModel:    "text-embedding-3-small",
		},
		Permissions: PermissionsConfig{
			DatabasePath: filepath.Join(".balitool", "permissions.db"),
		},
		PromptHub: PromptHubConfig{
			TemplateDir: "prompts",
			Timeout:     "30s",
		},
	}
}

// Load reads configuration from a YAML file, applies defaults for
// missing fields and environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables take precedence over the
// file. Secrets should only ever arrive this way.
func (c *Config) applyEnvOverrides() {
	if tok := os.Getenv("BUBBLE_API_TOKEN"); tok != "" {
		c.Bubble.APIToken = tok
	}
	if url := os.Getenv("BUBBLE_BASE_URL"); url != "" {
		c.Bubble.BaseURL = url
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Embedding.OpenAIAPIKey = key
	}
	if ep := os.Getenv("OLLAMA_ENDPOINT"); ep != "" {
		c.Embedding.OllamaEndpoint = ep
	}
	if key := os.Getenv("PROMPTHUB_API_KEY"); key != "" {
		c.PromptHub.APIKey = key
	}
	if url := os.Getenv("PROMPTHUB_URL"); url != "" {
		c.PromptHub.BaseURL = url
	}
	if path := os.Getenv("BALITOOL_DB"); path != "" {
		c.Index.DatabasePath = path
	}
}

// Validate checks configuration consistency. Token presence is not
// validated here: commands that never touch the platform API must work
// without one.
func (c *Config) Validate() error {
	if c.Bubble.BaseURL == "" {
		return fmt.Errorf("bubble.base_url must not be empty")
	}
	if c.Bubble.PageSize <= 0 || c.Bubble.PageSize > 100 {
		return fmt.Errorf("bubble.page_size must be in 1..100, got %d", c.Bubble.PageSize)
	}
	if _, err := c.Bubble.ParseTimeout(); err != nil {
		return fmt.Errorf("bubble.timeout: %w", err)
	}
	switch c.Embedding.Provider {
	case "ollama", "genai", "openai":
	default:
		return fmt.Errorf("embedding.provider must be one of ollama, genai, openai; got %q", c.Embedding.Provider)
	}
	if c.Index.DatabasePath == "" {
		return fmt.Errorf("index.database_path must not be empty")
	}
	if c.Permissions.DatabasePath == "" {
		return fmt.Errorf("permissions.database_path must not be empty")
	}
	return nil
}

// parseDuration parses a duration string, returning def when empty.
func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
