// Package gateway is the single entry point to the hosted model and image
// providers. It fixes the generation parameters, filters the transcript down
// to what the model accepts and turns empty model answers into an apology.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/imagegen"
	"mxdrAdvisor/internal/llm"
	"mxdrAdvisor/internal/metrics"
)

// ErrChatNotConfigured is returned when no model credential is configured.
var ErrChatNotConfigured = errors.New("API key not configured")

// FallbackReply is returned when the model answers without any text.
const FallbackReply = "I apologize, I could not generate a response."

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleImage     = "image"
)

// Message is one transcript entry as sent by callers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var chatParams = llm.GenerationParams{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 1024,
	SafetyThreshold: "BLOCK_NONE",
}

// ChatCompleter is the part of the gateway the conversation layer needs.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, systemPrompt string, history []Message) (string, error)
}

// ImageRenderer renders a finished image prompt.
type ImageRenderer interface {
	GenerateImage(ctx context.Context, prompt string) (imagegen.Result, error)
}

// Gateway forwards chat turns and image prompts to the configured providers.
// Either provider may be nil, in which case the matching call fails with a
// configuration error.
type Gateway struct {
	chat   llm.Client
	images imagegen.Generator
	log    zerolog.Logger
}

// New builds a gateway over the given providers.
func New(chat llm.Client, images imagegen.Generator, log zerolog.Logger) *Gateway {
	return &Gateway{chat: chat, images: images, log: log.With().Str("component", "gateway").Logger()}
}

// CompleteChat sends the system prompt and history to the model and returns
// its reply text. Image entries are dropped and "bot" is treated as
// "assistant". No retry is attempted.
func (g *Gateway) CompleteChat(ctx context.Context, systemPrompt string, history []Message) (string, error) {
	if g.chat == nil {
		return "", ErrChatNotConfigured
	}

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range history {
		role, ok := providerRole(msg.Role)
		if !ok {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Content})
	}

	start := time.Now()
	text, err := g.chat.ChatCompletion(ctx, messages, chatParams)
	metrics.ChatDuration.Observe(metrics.Since(start))
	switch {
	case errors.Is(err, llm.ErrNoCandidates):
		metrics.ChatCompletionsTotal.WithLabelValues("fallback").Inc()
		g.log.Warn().Int("history", len(history)).Msg("model returned no text, sending fallback reply")
		return FallbackReply, nil
	case err != nil:
		metrics.ChatCompletionsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ChatCompletionsTotal.WithLabelValues("ok").Inc()
	return text, nil
}

// GenerateImage renders prompt with the provider chosen at start-up.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string) (imagegen.Result, error) {
	if g.images == nil {
		return imagegen.Result{}, imagegen.ErrNotConfigured
	}

	provider := g.images.Name()
	start := time.Now()
	res, err := g.images.Generate(ctx, prompt)
	metrics.ImageDuration.WithLabelValues(provider).Observe(metrics.Since(start))
	switch {
	case errors.Is(err, imagegen.ErrTimeout):
		metrics.ImageGenerationsTotal.WithLabelValues(provider, "timeout").Inc()
		return imagegen.Result{}, err
	case err != nil:
		metrics.ImageGenerationsTotal.WithLabelValues(provider, "error").Inc()
		return imagegen.Result{}, err
	}
	metrics.ImageGenerationsTotal.WithLabelValues(provider, "ok").Inc()
	return res, nil
}

func providerRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser:
		return "user", true
	case RoleAssistant, "bot", "model":
		return "assistant", true
	}
	return "", false
}
