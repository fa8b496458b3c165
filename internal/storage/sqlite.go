package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists leads and page edits in an embedded SQLite database.
// Timestamps are stored as Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path. The path
// ":memory:" gives a private in-process database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	inMemory := path == ":memory:"
	dsn := path
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS mxdr_leads (
		id TEXT PRIMARY KEY,
		company_name TEXT,
		industry TEXT,
		employee_count INTEGER,
		contact_name TEXT,
		contact_email TEXT,
		contact_phone TEXT,
		qualification_score INTEGER NOT NULL DEFAULT 5,
		recommended_solution TEXT NOT NULL DEFAULT 'MXDR',
		chat_summary TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		assigned_to TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL,
		last_contacted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_mxdr_leads_created ON mxdr_leads(created_at);

	CREATE TABLE IF NOT EXISTS page_edits (
		page_id TEXT NOT NULL,
		block_id TEXT NOT NULL,
		content TEXT,
		deleted INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		updated_by TEXT,
		PRIMARY KEY (page_id, block_id)
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const sqliteLeadColumns = `id, company_name, industry, employee_count, contact_name, contact_email, contact_phone,
	qualification_score, recommended_solution, chat_summary, status, assigned_to, notes, created_at, last_contacted_at`

// InsertLead stores a new lead row.
func (s *SQLiteStore) InsertLead(ctx context.Context, in LeadInput) (Lead, error) {
	lead := newLead(uuid.NewString(), in, time.Now())

	var employees sql.NullInt64
	if lead.EmployeeCount != nil {
		employees = sql.NullInt64{Int64: int64(*lead.EmployeeCount), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mxdr_leads (id, company_name, industry, employee_count, contact_name, contact_email, contact_phone,
			qualification_score, recommended_solution, chat_summary, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, nullString(lead.CompanyName), nullString(lead.Industry), employees, nullString(lead.ContactName),
		nullString(lead.ContactEmail), nullString(lead.ContactPhone), lead.QualificationScore, lead.RecommendedSolution,
		nullString(lead.ChatSummary), lead.Status, lead.CreatedAt.UnixMilli())
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	lead.CreatedAt = time.UnixMilli(lead.CreatedAt.UnixMilli()).UTC()
	return lead, nil
}

// ListLeads returns the most recent leads.
func (s *SQLiteStore) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM mxdr_leads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// GetLead fetches one lead by id.
func (s *SQLiteStore) GetLead(ctx context.Context, id string) (Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLeadColumns+` FROM mxdr_leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLead(row rowScanner) (Lead, error) {
	var (
		lead                                  Lead
		company, industry, name, email, phone sql.NullString
		summary, assignedTo, notes            sql.NullString
		employees, lastContacted              sql.NullInt64
		createdAt                             int64
	)
	err := row.Scan(&lead.ID, &company, &industry, &employees, &name, &email, &phone,
		&lead.QualificationScore, &lead.RecommendedSolution, &summary, &lead.Status, &assignedTo, &notes,
		&createdAt, &lastContacted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, err
		}
		return Lead{}, fmt.Errorf("scan lead: %w", err)
	}

	lead.CompanyName = stringPtr(company)
	lead.Industry = stringPtr(industry)
	lead.ContactName = stringPtr(name)
	lead.ContactEmail = stringPtr(email)
	lead.ContactPhone = stringPtr(phone)
	lead.ChatSummary = stringPtr(summary)
	lead.AssignedTo = stringPtr(assignedTo)
	lead.Notes = stringPtr(notes)
	if employees.Valid {
		n := int(employees.Int64)
		lead.EmployeeCount = &n
	}
	lead.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastContacted.Valid {
		t := time.UnixMilli(lastContacted.Int64).UTC()
		lead.LastContactedAt = &t
	}
	return lead, nil
}

// UpdateLeadField runs one UPDATE for one column.
func (s *SQLiteStore) UpdateLeadField(ctx context.Context, id string, field LeadField, value any) error {
	if !field.Valid() {
		return fmt.Errorf("lead field %q cannot be updated", field)
	}
	arg, err := columnValue(field, value)
	if err != nil {
		return err
	}
	switch v := arg.(type) {
	case *string:
		arg = nullString(v)
	case time.Time:
		arg = v.UnixMilli()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE mxdr_leads SET `+string(field)+` = ? WHERE id = ?`, arg, id)
	if err != nil {
		return fmt.Errorf("update lead %s: %w", field, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PageEdits returns every block override stored for pageID.
func (s *SQLiteStore) PageEdits(ctx context.Context, pageID string) ([]PageEdit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_id, block_id, content, deleted, updated_at, updated_by FROM page_edits WHERE page_id = ? ORDER BY block_id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("query page edits: %w", err)
	}
	defer rows.Close()

	edits := []PageEdit{}
	for rows.Next() {
		var (
			edit               PageEdit
			content, updatedBy sql.NullString
			updatedAt          int64
		)
		if err := rows.Scan(&edit.PageID, &edit.BlockID, &content, &edit.Deleted, &updatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("scan page edit: %w", err)
		}
		edit.Content = stringPtr(content)
		edit.UpdatedBy = stringPtr(updatedBy)
		edit.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		edits = append(edits, edit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page edits: %w", err)
	}
	return edits, nil
}

// UpsertPageEdit writes the whole row, last write wins.
func (s *SQLiteStore) UpsertPageEdit(ctx context.Context, edit PageEdit) (PageEdit, error) {
	edit.UpdatedAt = time.UnixMilli(time.Now().UnixMilli()).UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO page_edits (page_id, block_id, content, deleted, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (page_id, block_id) DO UPDATE SET
			content = excluded.content,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		edit.PageID, edit.BlockID, nullString(edit.Content), edit.Deleted, edit.UpdatedAt.UnixMilli(), nullString(edit.UpdatedBy)); err != nil {
		return PageEdit{}, fmt.Errorf("upsert page edit: %w", err)
	}
	return edit, nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
