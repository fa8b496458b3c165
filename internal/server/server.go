// Package server wires the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/chat"
	"mxdrAdvisor/internal/httpjson"
	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/logger"
	"mxdrAdvisor/internal/media"
	"mxdrAdvisor/internal/metrics"
	"mxdrAdvisor/internal/middleware"
	"mxdrAdvisor/internal/pageedits"
)

// Options carries the handlers and settings the router needs.
type Options struct {
	Port        string
	CORSOrigins []string
	// MediaDir serves locally stored renders under /media when set.
	MediaDir string
	// WebDir serves a static front end from / when set.
	WebDir string

	Chat      chat.Handler
	Leads     leads.Handler
	PageEdits pageedits.Handler
	Log       zerolog.Logger
}

// Router builds the route tree.
func Router(opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(logger.RequestLogger(opts.Log))
	router.Use(chimw.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Post("/chat", opts.Chat.Chat)
		r.Post("/image", opts.Chat.Image)
		r.Get("/advisor", opts.Chat.Advisor)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", opts.Leads.List)
			r.Patch("/", opts.Leads.Patch)
			r.Get("/events", opts.Leads.Events)
		})

		r.Get("/page-edits", opts.PageEdits.Get)
		r.Put("/page-edits", opts.PageEdits.Put)
	})

	if opts.MediaDir != "" {
		router.Handle(media.LocalURLPrefix+"/*", http.StripPrefix(media.LocalURLPrefix+"/", http.FileServer(http.Dir(opts.MediaDir))))
	}
	if opts.WebDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(opts.WebDir)))
	}

	return router
}

// New constructs the HTTP server. Image renders can poll a provider for
// several seconds, so the write timeout is generous.
func New(opts Options) *http.Server {
	return &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      Router(opts),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
