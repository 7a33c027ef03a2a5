package config

import "time"

// PromptHubConfig configures prompt template publishing.
type PromptHubConfig struct {
	// Base URL of the prompt-management service API.
	BaseURL string `yaml:"base_url"`

	// API key, usually set via PROMPTHUB_API_KEY.
	APIKey string `yaml:"api_key"`

	// Directory holding local YAML prompt templates.
	TemplateDir string `yaml:"template_dir"`

	// Per-request timeout, e.g. "30s".
	Timeout string `yaml:"timeout"`
}

// ParseTimeout returns the per-request timeout, defaulting to 30s.
func (c PromptHubConfig) ParseTimeout() (time.Duration, error) {
	return parseDuration(c.Timeout, 30*time.Second)
}
