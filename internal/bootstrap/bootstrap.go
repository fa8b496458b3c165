// Package bootstrap builds the long-lived dependencies shared by the
// binaries from a loaded configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/config"
	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/imagegen"
	"mxdrAdvisor/internal/llm"
	"mxdrAdvisor/internal/media"
	"mxdrAdvisor/internal/storage"
)

// Store opens the configured lead store. A missing DATABASE_URL yields a nil
// store and no error: leads are then dropped with a warning.
func Store(ctx context.Context, cfg config.Config, log zerolog.Logger) (storage.Store, error) {
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if errors.Is(err, storage.ErrNotConfigured) {
		log.Warn().Msg("DATABASE_URL not set; leads and page edits will not be persisted")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ChatClient returns the model client, or nil when no credential is set.
func ChatClient(ctx context.Context, cfg config.GeminiConfig) (llm.Client, error) {
	gc := llm.GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, Timeout: cfg.Timeout}
	if cfg.ServiceAccountFile != "" {
		ts, err := llm.ServiceAccountTokenSource(ctx, cfg.ServiceAccountFile)
		if err != nil {
			return nil, err
		}
		gc.TokenSource = ts
	}
	if gc.APIKey == "" && gc.TokenSource == nil {
		return nil, nil
	}
	return llm.NewGeminiClient(gc), nil
}

// ImageGenerator returns the highest priority configured image provider,
// wrapped so renders land in the configured media store. It returns nil when
// no provider is configured.
func ImageGenerator(ctx context.Context, cfg config.Config, log zerolog.Logger) (imagegen.Generator, error) {
	gen, err := imagegen.Select(imagegen.Config{
		TogetherAPIKey: cfg.Images.TogetherAPIKey,
		ReplicateToken: cfg.Images.ReplicateToken,
		GeminiEnabled:  cfg.Images.GeminiEnabled,
		GeminiAPIKey:   cfg.Gemini.APIKey,
		GeminiModel:    cfg.Images.GeminiImageModel,
		Timeout:        cfg.Gemini.Timeout,
	})
	if errors.Is(err, imagegen.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	uploader, err := media.New(ctx, media.Config{
		S3: media.S3Config{
			Bucket:          cfg.Media.Bucket,
			Region:          cfg.Media.Region,
			Endpoint:        cfg.Media.Endpoint,
			PublicURL:       cfg.Media.PublicURL,
			KeyPrefix:       cfg.Media.KeyPrefix,
			ForcePathStyle:  cfg.Media.ForcePathStyle,
			AccessKeyID:     cfg.Media.AccessKeyID,
			SecretAccessKey: cfg.Media.SecretAccessKey,
		},
		LocalDir: cfg.Media.LocalDir,
	})
	if err != nil {
		return nil, fmt.Errorf("init media uploader: %w", err)
	}
	return imagegen.WithUploads(gen, uploader, log), nil
}

// Gateway assembles the provider gateway from the configuration.
func Gateway(ctx context.Context, cfg config.Config, log zerolog.Logger) (*gateway.Gateway, error) {
	chatClient, err := ChatClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	images, err := ImageGenerator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	chatEvt := log.Info()
	if chatClient == nil {
		chatEvt = log.Warn()
	}
	chatEvt.Bool("chat_configured", chatClient != nil).Msg("chat provider")
	if images != nil {
		log.Info().Str("provider", images.Name()).Msg("image provider")
	} else {
		log.Warn().Msg("no image provider configured")
	}

	return gateway.New(chatClient, images, log), nil
}
