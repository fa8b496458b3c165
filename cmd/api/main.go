package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/bootstrap"
	"mxdrAdvisor/internal/chat"
	"mxdrAdvisor/internal/config"
	"mxdrAdvisor/internal/events"
	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/logger"
	"mxdrAdvisor/internal/pageedits"
	"mxdrAdvisor/internal/server"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to init logger")
	}
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	ctx := context.Background()
	store, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init store")
	}
	if store != nil {
		defer store.Close()
	}

	gw, err := bootstrap.Gateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init provider gateway")
	}

	broker := events.NewBroker()
	recorder := leads.NewRecorder(store, broker, log)

	srv := server.New(server.Options{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		MediaDir:    cfg.Media.LocalDir,
		WebDir:      cfg.WebDir,
		Chat:        chat.Handler{Gateway: gw, Leads: recorder, Log: log},
		Leads:       leads.Handler{Service: leads.NewService(store, broker), Broker: broker, Log: log},
		PageEdits:   pageedits.Handler{Store: store, Log: log},
		Log:         log,
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdown
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("server ready")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
