// Package imagegen renders scene prompts through one of several hosted image
// providers. The provider is picked once, at start-up, from the configured
// credentials.
package imagegen

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned when no provider credential is set.
	ErrNotConfigured = errors.New("no image API configured")
	// ErrTimeout is returned when an asynchronous job does not finish within
	// its polling budget.
	ErrTimeout = errors.New("image generation timed out")
	// ErrNoImage is returned when a provider answers without image data.
	ErrNoImage = errors.New("no image returned")
)

// Result is a rendered image: a data URI or a URL, plus the provider tag.
type Result struct {
	Image    string `json:"image"`
	Provider string `json:"provider"`
}

// Generator renders one prompt into one image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
	Name() string
}

// Config lists the credentials for every supported provider.
type Config struct {
	TogetherAPIKey string
	ReplicateToken string

	GeminiEnabled bool
	GeminiAPIKey  string
	GeminiModel   string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Select returns the first configured provider in priority order:
// Together, then Replicate, then Gemini.
func Select(cfg Config) (Generator, error) {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	switch {
	case strings.TrimSpace(cfg.TogetherAPIKey) != "":
		return NewTogether(TogetherConfig{APIKey: cfg.TogetherAPIKey, HTTPClient: client}), nil
	case strings.TrimSpace(cfg.ReplicateToken) != "":
		return NewReplicate(ReplicateConfig{Token: cfg.ReplicateToken, HTTPClient: client}), nil
	case cfg.GeminiEnabled && strings.TrimSpace(cfg.GeminiAPIKey) != "":
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout), nil
	}
	return nil, ErrNotConfigured
}
