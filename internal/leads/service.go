package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"mxdrAdvisor/internal/events"
	"mxdrAdvisor/internal/metrics"
	"mxdrAdvisor/internal/storage"
)

// Workflow statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusProposal  = "proposal"
	StatusWon       = "won"
	StatusLost      = "lost"
)

var statuses = map[string]bool{
	StatusNew: true, StatusContacted: true, StatusQualified: true,
	StatusProposal: true, StatusWon: true, StatusLost: true,
}

var (
	ErrInvalidID     = errors.New("invalid lead id")
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s string) bool { return statuses[s] }

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON marks the field as present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Some returns a present OptionalString holding s.
func Some(s string) OptionalString { return OptionalString{Set: true, Value: &s} }

// Patch is an operator update. Only present fields are written.
type Patch struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	AssignedTo OptionalString `json:"assigned_to"`
	Notes      OptionalString `json:"notes"`
}

// Service applies operator changes to stored leads.
type Service struct {
	store  storage.Store
	broker *events.Broker
	now    func() time.Time
}

// NewService builds a lead service. broker may be nil.
func NewService(store storage.Store, broker *events.Broker) *Service {
	return &Service{store: store, broker: broker, now: time.Now}
}

// List returns up to limit leads, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]storage.Lead, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.store.ListLeads(ctx, limit)
}

// Apply writes each present field with its own statement, in the order
// status, assigned_to, notes, last_contacted_at. A failure stops the
// sequence; earlier writes stay applied. Setting status to "contacted" also
// stamps last_contacted_at.
func (s *Service) Apply(ctx context.Context, p Patch) error {
	if s.store == nil {
		return storage.ErrNotConfigured
	}
	id := strings.TrimSpace(p.ID)
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	if p.Status != "" && !ValidStatus(p.Status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, p.Status)
	}

	type update struct {
		field storage.LeadField
		value any
	}
	var updates []update
	if p.Status != "" {
		updates = append(updates, update{storage.LeadStatus, p.Status})
	}
	if p.AssignedTo.Set {
		updates = append(updates, update{storage.LeadAssignedTo, p.AssignedTo.Value})
	}
	if p.Notes.Set {
		updates = append(updates, update{storage.LeadNotes, p.Notes.Value})
	}
	if p.Status == StatusContacted {
		updates = append(updates, update{storage.LeadLastContactedAt, s.now()})
	}

	for _, u := range updates {
		if err := s.store.UpdateLeadField(ctx, id, u.field, u.value); err != nil {
			return err
		}
		metrics.LeadPatchesTotal.WithLabelValues(string(u.field)).Inc()
	}

	if len(updates) > 0 && s.broker != nil {
		if lead, err := s.store.GetLead(ctx, id); err == nil {
			s.broker.Publish(events.Event{Type: events.LeadUpdated, Lead: lead})
		}
	}
	return nil
}

// WriteJSONL writes one JSON object per lead per line.
func WriteJSONL(w io.Writer, leads []storage.Lead) error {
	enc := json.NewEncoder(w)
	for _, lead := range leads {
		if err := enc.Encode(lead); err != nil {
			return fmt.Errorf("encode lead %s: %w", lead.ID, err)
		}
	}
	return nil
}
