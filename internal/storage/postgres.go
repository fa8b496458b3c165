package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists leads and page edits in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and makes sure the tables exist.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS mxdr_leads (
		id UUID PRIMARY KEY,
		company_name VARCHAR(255),
		industry VARCHAR(100),
		employee_count INTEGER,
		contact_name VARCHAR(255),
		contact_email VARCHAR(255),
		contact_phone VARCHAR(50),
		qualification_score INTEGER NOT NULL DEFAULT 5,
		recommended_solution VARCHAR(100) NOT NULL DEFAULT 'MXDR',
		chat_summary TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		assigned_to VARCHAR(255),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_contacted_at TIMESTAMPTZ
	)`); err != nil {
		return fmt.Errorf("create mxdr_leads table: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS mxdr_leads_created_at_idx ON mxdr_leads (created_at DESC)`); err != nil {
		return fmt.Errorf("create mxdr_leads index: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS page_edits (
		page_id VARCHAR(64) NOT NULL,
		block_id VARCHAR(128) NOT NULL,
		content TEXT,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_by VARCHAR(100),
		PRIMARY KEY (page_id, block_id)
	)`); err != nil {
		return fmt.Errorf("create page_edits table: %w", err)
	}
	return nil
}

const leadColumns = `id::text, company_name, industry, employee_count, contact_name, contact_email, contact_phone,
	qualification_score, recommended_solution, chat_summary, status, assigned_to, notes, created_at, last_contacted_at`

// InsertLead stores a new lead row.
func (s *PostgresStore) InsertLead(ctx context.Context, in LeadInput) (Lead, error) {
	lead := newLead(uuid.NewString(), in, time.Now())

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO mxdr_leads (id, company_name, industry, employee_count, contact_name, contact_email, contact_phone,
			qualification_score, recommended_solution, chat_summary, status, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, lead.CompanyName, lead.Industry, lead.EmployeeCount, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.QualificationScore, lead.RecommendedSolution, lead.ChatSummary, lead.Status, lead.CreatedAt); err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns the most recent leads.
func (s *PostgresStore) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+leadColumns+` FROM mxdr_leads ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
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
func (s *PostgresStore) GetLead(ctx context.Context, id string) (Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Lead{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM mxdr_leads WHERE id = $1::uuid`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(&lead.ID, &lead.CompanyName, &lead.Industry, &lead.EmployeeCount, &lead.ContactName, &lead.ContactEmail,
		&lead.ContactPhone, &lead.QualificationScore, &lead.RecommendedSolution, &lead.ChatSummary, &lead.Status,
		&lead.AssignedTo, &lead.Notes, &lead.CreatedAt, &lead.LastContactedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, err
		}
		return Lead{}, fmt.Errorf("scan lead: %w", err)
	}
	return lead, nil
}

// UpdateLeadField runs one UPDATE for one column.
func (s *PostgresStore) UpdateLeadField(ctx context.Context, id string, field LeadField, value any) error {
	if !field.Valid() {
		return fmt.Errorf("lead field %q cannot be updated", field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	arg, err := columnValue(field, value)
	if err != nil {
		return err
	}

	// field is one of the fixed column names checked above.
	tag, err := s.pool.Exec(ctx, `UPDATE mxdr_leads SET `+string(field)+` = $1 WHERE id = $2::uuid`, arg, id)
	if err != nil {
		return fmt.Errorf("update lead %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PageEdits returns every block override stored for pageID.
func (s *PostgresStore) PageEdits(ctx context.Context, pageID string) ([]PageEdit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT page_id, block_id, content, deleted, updated_at, updated_by FROM page_edits WHERE page_id = $1 ORDER BY block_id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("query page edits: %w", err)
	}
	defer rows.Close()

	edits := []PageEdit{}
	for rows.Next() {
		var edit PageEdit
		if err := rows.Scan(&edit.PageID, &edit.BlockID, &edit.Content, &edit.Deleted, &edit.UpdatedAt, &edit.UpdatedBy); err != nil {
			return nil, fmt.Errorf("scan page edit: %w", err)
		}
		edits = append(edits, edit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page edits: %w", err)
	}
	return edits, nil
}

// UpsertPageEdit writes the whole row, last write wins.
func (s *PostgresStore) UpsertPageEdit(ctx context.Context, edit PageEdit) (PageEdit, error) {
	edit.UpdatedAt = time.Now().UTC()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO page_edits (page_id, block_id, content, deleted, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (page_id, block_id) DO UPDATE SET
			content = EXCLUDED.content,
			deleted = EXCLUDED.deleted,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		edit.PageID, edit.BlockID, edit.Content, edit.Deleted, edit.UpdatedAt, edit.UpdatedBy); err != nil {
		return PageEdit{}, fmt.Errorf("upsert page edit: %w", err)
	}
	return edit, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
