package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe store for demos and tests. Data lives only
// as long as the process.
type InMemoryStore struct {
	mu    sync.RWMutex
	leads []Lead
	edits map[string]map[string]PageEdit
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{edits: make(map[string]map[string]PageEdit)}
}

// InsertLead appends a new lead.
func (s *InMemoryStore) InsertLead(_ context.Context, in LeadInput) (Lead, error) {
	lead := newLead(uuid.NewString(), in, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return cloneLead(lead), nil
}

// ListLeads returns the newest leads first.
func (s *InMemoryStore) ListLeads(_ context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, 0, min(limit, len(s.leads)))
	for i := len(s.leads) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneLead(s.leads[i]))
	}
	return out, nil
}

// GetLead fetches one lead by id.
func (s *InMemoryStore) GetLead(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, lead := range s.leads {
		if lead.ID == id {
			return cloneLead(lead), nil
		}
	}
	return Lead{}, ErrNotFound
}

// UpdateLeadField sets one column of one lead.
func (s *InMemoryStore) UpdateLeadField(_ context.Context, id string, field LeadField, value any) error {
	arg, err := columnValue(field, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.leads {
		if s.leads[i].ID != id {
			continue
		}
		lead := &s.leads[i]
		switch field {
		case LeadStatus:
			lead.Status = arg.(string)
		case LeadAssignedTo:
			lead.AssignedTo = copyString(arg.(*string))
		case LeadNotes:
			lead.Notes = copyString(arg.(*string))
		case LeadLastContactedAt:
			t := arg.(time.Time)
			lead.LastContactedAt = &t
		}
		return nil
	}
	return ErrNotFound
}

// PageEdits returns every block override stored for pageID.
func (s *InMemoryStore) PageEdits(_ context.Context, pageID string) ([]PageEdit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edits := make([]PageEdit, 0, len(s.edits[pageID]))
	for _, edit := range s.edits[pageID] {
		edits = append(edits, edit)
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].BlockID < edits[j].BlockID })
	return edits, nil
}

// UpsertPageEdit replaces the row for (page, block).
func (s *InMemoryStore) UpsertPageEdit(_ context.Context, edit PageEdit) (PageEdit, error) {
	edit.UpdatedAt = time.Now().UTC()
	edit.Content = copyString(edit.Content)
	edit.UpdatedBy = copyString(edit.UpdatedBy)

	s.mu.Lock()
	defer s.mu.Unlock()

	blocks, ok := s.edits[edit.PageID]
	if !ok {
		blocks = make(map[string]PageEdit)
		s.edits[edit.PageID] = blocks
	}
	blocks[edit.BlockID] = edit
	return edit, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() {}

func cloneLead(l Lead) Lead {
	l.CompanyName = copyString(l.CompanyName)
	l.Industry = copyString(l.Industry)
	l.ContactName = copyString(l.ContactName)
	l.ContactEmail = copyString(l.ContactEmail)
	l.ContactPhone = copyString(l.ContactPhone)
	l.ChatSummary = copyString(l.ChatSummary)
	l.AssignedTo = copyString(l.AssignedTo)
	l.Notes = copyString(l.Notes)
	if l.EmployeeCount != nil {
		n := *l.EmployeeCount
		l.EmployeeCount = &n
	}
	if l.LastContactedAt != nil {
		t := *l.LastContactedAt
		l.LastContactedAt = &t
	}
	return l
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
