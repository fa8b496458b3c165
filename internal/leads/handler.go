package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/events"
	"mxdrAdvisor/internal/httpjson"
	"mxdrAdvisor/internal/storage"
)

// Handler exposes the lead dashboard API.
type Handler struct {
	Service *Service
	Broker  *events.Broker
	Log     zerolog.Logger
}

// List handles GET /api/leads.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpjson.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, storage.DefaultListLimit)
	}

	leads, err := h.Service.List(r.Context(), limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch leads")
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"leads": leads})
}

// Patch handles PATCH /api/leads.
func (h Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req Patch
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Lead ID required")
		return
	}

	err := h.Service.Apply(r.Context(), req)
	switch {
	case err == nil:
		httpjson.Success(w)
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidStatus):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "Lead not found")
	default:
		h.Log.Error().Err(err).Str("lead_id", req.ID).Msg("failed to update lead")
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// Events handles GET /api/leads/events as a server-sent event stream.
func (h Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.Broker == nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "lead events disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpjson.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				h.Log.Warn().Err(err).Msg("failed to encode lead event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
