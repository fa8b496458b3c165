package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	replicateBaseURL      = "https://api.replicate.com"
	replicateModelPath    = "/v1/models/black-forest-labs/flux-schnell/predictions"
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxPollAttempt = 30
)

// ReplicateConfig configures the asynchronous Replicate provider.
type ReplicateConfig struct {
	Token        string
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
}

// Replicate starts a prediction and polls it until it reaches a terminal
// state or the attempt budget runs out.
type Replicate struct {
	token        string
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
	client       *http.Client
}

// NewReplicate constructs the Replicate provider.
func NewReplicate(cfg ReplicateConfig) *Replicate {
	r := &Replicate{
		token:        cfg.Token,
		baseURL:      strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		client:       cfg.HTTPClient,
	}
	if r.baseURL == "" {
		r.baseURL = replicateBaseURL
	}
	if r.pollInterval <= 0 {
		r.pollInterval = defaultPollInterval
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxPollAttempt
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	return r
}

func (r *Replicate) Name() string { return "replicate" }

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output []string        `json:"output"`
	Error  json.RawMessage `json:"error"`
	Detail string          `json:"detail"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p prediction) terminal() bool {
	return p.Status == "succeeded" || p.Status == "failed" || p.Status == "canceled"
}

// errorText returns the prediction's error, which Replicate sends as a
// string or null.
func (p prediction) errorText() string {
	if len(p.Error) == 0 || string(p.Error) == "null" {
		return ""
	}
	var msg string
	if err := json.Unmarshal(p.Error, &msg); err == nil {
		return msg
	}
	return string(p.Error)
}

// Generate starts a flux-schnell prediction and waits for its output URL.
func (r *Replicate) Generate(ctx context.Context, prompt string) (Result, error) {
	body, err := json.Marshal(map[string]any{
		"input": map[string]any{
			"prompt":         prompt,
			"num_outputs":    1,
			"aspect_ratio":   "1:1",
			"output_format":  "webp",
			"output_quality": 80,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("replicate: marshal payload: %w", err)
	}

	current, err := r.do(ctx, http.MethodPost, r.baseURL+replicateModelPath, body)
	if err != nil {
		return Result{}, err
	}
	if msg := current.errorText(); msg != "" {
		return Result{}, errors.New(msg)
	}

	for attempt := 0; !current.terminal() && attempt < r.maxAttempts; attempt++ {
		timer := time.NewTimer(r.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}

		if current.URLs.Get == "" {
			return Result{}, errors.New("replicate: prediction has no status URL")
		}
		current, err = r.do(ctx, http.MethodGet, current.URLs.Get, nil)
		if err != nil {
			return Result{}, err
		}
	}

	switch current.Status {
	case "succeeded":
	case "failed", "canceled":
		if msg := current.errorText(); msg != "" {
			return Result{}, errors.New(msg)
		}
		return Result{}, errors.New("Generation failed")
	default:
		return Result{}, fmt.Errorf("replicate: prediction %s still %q after %d polls: %w", current.ID, current.Status, r.maxAttempts, ErrTimeout)
	}

	if len(current.Output) == 0 || current.Output[0] == "" {
		return Result{}, ErrNoImage
	}
	return Result{Image: current.Output[0], Provider: r.Name()}, nil
}

func (r *Replicate) do(ctx context.Context, method, url string, body []byte) (prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return prediction{}, fmt.Errorf("replicate: request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return prediction{}, fmt.Errorf("replicate: perform request: %w", err)
	}
	defer resp.Body.Close()

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return prediction{}, fmt.Errorf("replicate: decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := p.Detail
		if msg == "" {
			msg = p.errorText()
		}
		return prediction{}, fmt.Errorf("replicate: status %d: %s", resp.StatusCode, msg)
	}
	return p, nil
}
