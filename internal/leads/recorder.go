// Package leads captures qualified prospects and lets operators work them.
package leads

import (
	"context"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/events"
	"mxdrAdvisor/internal/metrics"
	"mxdrAdvisor/internal/storage"
)

// Recorder persists leads on a best-effort basis: failures are logged and
// swallowed so capture never blocks the conversation.
type Recorder struct {
	store  storage.Store
	broker *events.Broker
	log    zerolog.Logger
}

// NewRecorder builds a recorder. store and broker may be nil.
func NewRecorder(store storage.Store, broker *events.Broker, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, broker: broker, log: log.With().Str("component", "leads").Logger()}
}

// Capture inserts one new lead row. It reports whether the row was stored.
func (r *Recorder) Capture(ctx context.Context, in storage.LeadInput) bool {
	if r == nil || r.store == nil {
		metrics.LeadCapturesTotal.WithLabelValues("dropped").Inc()
		if r != nil {
			r.log.Warn().Err(storage.ErrNotConfigured).Msg("lead not saved")
		}
		return false
	}

	lead, err := r.store.InsertLead(ctx, in)
	if err != nil {
		metrics.LeadCapturesTotal.WithLabelValues("dropped").Inc()
		r.log.Error().Err(err).Msg("failed to save lead")
		return false
	}

	metrics.LeadCapturesTotal.WithLabelValues("stored").Inc()
	r.log.Info().
		Str("lead_id", lead.ID).
		Int("score", lead.QualificationScore).
		Bool("has_email", lead.ContactEmail != nil).
		Msg("lead captured")
	r.broker.Publish(events.Event{Type: events.LeadCreated, Lead: lead})
	return true
}
