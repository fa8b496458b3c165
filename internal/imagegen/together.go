package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	togetherBaseURL = "https://api.together.xyz"
	togetherModel   = "black-forest-labs/FLUX.1-schnell"
)

// TogetherConfig configures the synchronous Together provider.
type TogetherConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Together renders images synchronously and returns them as PNG data URIs.
type Together struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewTogether constructs the Together provider.
func NewTogether(cfg TogetherConfig) *Together {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = togetherBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Together{apiKey: cfg.APIKey, baseURL: baseURL, client: client}
}

func (t *Together) Name() string { return "together" }

// Generate requests one 512x512 image.
func (t *Together) Generate(ctx context.Context, prompt string) (Result, error) {
	body, err := json.Marshal(map[string]any{
		"model":           togetherModel,
		"prompt":          prompt,
		"width":           512,
		"height":          512,
		"n":               1,
		"response_format": "b64_json",
	})
	if err != nil {
		return Result{}, fmt.Errorf("together: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("together: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("together: perform request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if payload.Error != nil {
		if payload.Error.Message != "" {
			return Result{}, errors.New(payload.Error.Message)
		}
		return Result{}, errors.New("Together API error")
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("together: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return Result{}, fmt.Errorf("together: decode response: %w", decodeErr)
	}
	if len(payload.Data) == 0 || payload.Data[0].B64JSON == "" {
		return Result{}, ErrNoImage
	}

	return Result{
		Image:    "data:image/png;base64," + payload.Data[0].B64JSON,
		Provider: t.Name(),
	}, nil
}
