package config

import "time"

// BubbleConfig configures access to the Bubble Data API.
type BubbleConfig struct {
	// Base URL of the data endpoint, e.g. https://app.example.com/api/1.1/obj
	BaseURL string `yaml:"base_url"`

	// Bearer token for the Data API. Usually set via BUBBLE_API_TOKEN.
	APIToken string `yaml:"api_token"`

	// Records per page (Bubble caps this at 100).
	PageSize int `yaml:"page_size"`

	// Per-request timeout, e.g. "30s".
	Timeout string `yaml:"timeout"`

	// Candidate table names probed by schema discovery. Empty means
	// use the built-in candidate list.
	Tables []string `yaml:"tables"`
}

// ParseTimeout returns the per-request timeout, defaulting to 30s.
func (c BubbleConfig) ParseTimeout() (time.Duration, error) {
	return parseDuration(c.Timeout, 30*time.Second)
}
