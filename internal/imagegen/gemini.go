package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiImageModel = "gemini-2.5-flash-image"

// Gemini renders images through Gemini's native image output.
type Gemini struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGemini constructs the Gemini provider.
func NewGemini(apiKey, model string, timeout time.Duration) *Gemini {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = defaultGeminiImageModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{apiKey: apiKey, model: model, timeout: timeout}
}

func (g *Gemini) Name() string { return "gemini" }

// Generate returns the first inline image part as a data URI.
func (g *Gemini) Generate(ctx context.Context, prompt string) (Result, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return Result{}, ErrNotConfigured
	}

	childCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(childCtx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return Result{}, fmt.Errorf("gemini: create client: %w", err)
	}

	resp, err := client.Models.GenerateContent(childCtx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return Result{}, fmt.Errorf("gemini: generate image: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, ErrNoImage
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if strings.TrimSpace(mime) == "" {
			mime = "image/png"
		}
		return Result{
			Image:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data),
			Provider: g.Name(),
		}, nil
	}
	return Result{}, ErrNoImage
}
