// Package storage persists captured leads and page edits in PostgreSQL,
// SQLite or process memory, selected by the DATABASE_URL scheme.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates that no row matched the given key.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured is returned by NewStore when no database URL is set.
	ErrNotConfigured = errors.New("DATABASE_URL not configured")
)

const (
	DefaultScore          = 5
	DefaultRecommendation = "MXDR"
	DefaultStatus         = "new"

	// DefaultListLimit caps ListLeads when the caller passes no limit.
	DefaultListLimit = 100
)

// Lead is one captured prospect. Nullable columns are pointers so they encode
// as JSON null.
type Lead struct {
	ID                  string     `json:"id"`
	CompanyName         *string    `json:"company_name"`
	Industry            *string    `json:"industry"`
	EmployeeCount       *int       `json:"employee_count"`
	ContactName         *string    `json:"contact_name"`
	ContactEmail        *string    `json:"contact_email"`
	ContactPhone        *string    `json:"contact_phone"`
	QualificationScore  int        `json:"qualification_score"`
	RecommendedSolution string     `json:"recommended_solution"`
	ChatSummary         *string    `json:"chat_summary"`
	Status              string     `json:"status"`
	AssignedTo          *string    `json:"assigned_to"`
	Notes               *string    `json:"notes"`
	CreatedAt           time.Time  `json:"created_at"`
	LastContactedAt     *time.Time `json:"last_contacted_at"`
}

// LeadInput carries the fields known at capture time. Blank strings are
// stored as NULL; a nil score or blank recommendation takes the default.
type LeadInput struct {
	CompanyName         string
	Industry            string
	EmployeeCount       *int
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	QualificationScore  *int
	RecommendedSolution string
	ChatSummary         string
}

// newLead applies defaults and NULL substitution to in.
func newLead(id string, in LeadInput, now time.Time) Lead {
	lead := Lead{
		ID:                  id,
		CompanyName:         nullable(in.CompanyName),
		Industry:            nullable(in.Industry),
		EmployeeCount:       in.EmployeeCount,
		ContactName:         nullable(in.ContactName),
		ContactEmail:        nullable(in.ContactEmail),
		ContactPhone:        nullable(in.ContactPhone),
		QualificationScore:  DefaultScore,
		RecommendedSolution: DefaultRecommendation,
		ChatSummary:         nullable(in.ChatSummary),
		Status:              DefaultStatus,
		CreatedAt:           now.UTC(),
	}
	if in.QualificationScore != nil {
		lead.QualificationScore = *in.QualificationScore
	}
	if rec := strings.TrimSpace(in.RecommendedSolution); rec != "" {
		lead.RecommendedSolution = rec
	}
	return lead
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// LeadField names a column that can be updated on its own.
type LeadField string

const (
	LeadStatus          LeadField = "status"
	LeadAssignedTo      LeadField = "assigned_to"
	LeadNotes           LeadField = "notes"
	LeadLastContactedAt LeadField = "last_contacted_at"
)

// Valid reports whether f is an updatable column.
func (f LeadField) Valid() bool {
	switch f {
	case LeadStatus, LeadAssignedTo, LeadNotes, LeadLastContactedAt:
		return true
	}
	return false
}

// PageEdit is the latest override for one content block of a page.
type PageEdit struct {
	PageID    string    `json:"page_id"`
	BlockID   string    `json:"block_id"`
	Content   *string   `json:"content"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy *string   `json:"updated_by,omitempty"`
}

// Store defines the persistence behaviors the application relies on.
type Store interface {
	// InsertLead always creates a new row.
	InsertLead(ctx context.Context, in LeadInput) (Lead, error)
	// ListLeads returns the newest leads first.
	ListLeads(ctx context.Context, limit int) ([]Lead, error)
	GetLead(ctx context.Context, id string) (Lead, error)
	// UpdateLeadField sets one column of one lead in a single statement.
	// value is a string for status, a *string for assigned_to and notes, and
	// a time.Time for last_contacted_at.
	UpdateLeadField(ctx context.Context, id string, field LeadField, value any) error

	PageEdits(ctx context.Context, pageID string) ([]PageEdit, error)
	// UpsertPageEdit replaces the whole row for (page, block).
	UpsertPageEdit(ctx context.Context, edit PageEdit) (PageEdit, error)

	Close()
}

// NewStore selects a backing store from the URL scheme: memory://,
// sqlite://path, or a PostgreSQL connection string.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	switch {
	case databaseURL == "":
		return nil, ErrNotConfigured
	case strings.HasPrefix(databaseURL, "memory://"):
		return NewInMemoryStore(), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	}
	return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(databaseURL))
}

// redact hides everything after the scheme so credentials never reach logs.
func redact(url string) string {
	if scheme, _, ok := strings.Cut(url, "://"); ok {
		return scheme + "://..."
	}
	return "..."
}

func valueString(field LeadField, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string, got %T", field, value)
	}
	return s, nil
}

func valueNullableString(field LeadField, value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *string:
		return v, nil
	case string:
		return &v, nil
	}
	return nil, fmt.Errorf("%s expects a string or nil, got %T", field, value)
}

func valueTime(field LeadField, value any) (time.Time, error) {
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%s expects a time, got %T", field, value)
	}
	return t.UTC(), nil
}

// columnValue converts value into the Go type stored for field.
func columnValue(field LeadField, value any) (any, error) {
	switch field {
	case LeadStatus:
		return valueString(field, value)
	case LeadAssignedTo, LeadNotes:
		return valueNullableString(field, value)
	case LeadLastContactedAt:
		return valueTime(field, value)
	}
	return nil, fmt.Errorf("lead field %q cannot be updated", field)
}
