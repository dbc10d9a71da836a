package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Filter selects ledger entries. Zero fields do not constrain.
type Filter struct {
	ActorID      string
	TargetUserID string
	CompanyID    string
	Category     *Category
	Since        time.Time
	Until        time.Time
	Limit        int
}

// Store persists ledger entries. There is deliberately no update.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter) ([]Entry, error)
	// Purge deletes entries created before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// SQLStore keeps entries in the audit_log_entries table.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// OpenSQLStore connects to the audit database at url.
func OpenSQLStore(url string) (*SQLStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing connection, e.g. one from sqlmock.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

const insertEntry = `
		INSERT INTO audit_log_entries (id, category, actor_id, target_user_id, company_id, resource, action, effect, resource_id, description, context, success, risk_score, severity, seal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

func (s *SQLStore) Insert(ctx context.Context, e Entry) error {
	contextJSON, err := json.Marshal(e.Context)
	if err != nil {
		return fmt.Errorf("encoding audit context: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertEntry,
		e.ID,
		e.Category.String(),
		e.ActorID,
		nullString(e.TargetUserID),
		nullString(e.CompanyID),
		e.Resource,
		e.Action,
		e.Effect,
		nullString(e.ResourceID),
		e.Description,
		contextJSON,
		e.Success,
		e.RiskScore,
		int(e.Level),
		e.Seal,
		e.CreatedAt.UTC(),
	)
	return err
}

const selectEntries = `SELECT id, category, actor_id, target_user_id, company_id, resource, action, effect, resource_id, description, context, success, risk_score, severity, seal, created_at FROM audit_log_entries`

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.TargetUserID != "" {
		add("target_user_id = $%d", f.TargetUserID)
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.Category != nil {
		add("category = $%d", f.Category.String())
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since.UTC())
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until.UTC())
	}

	query := selectEntries
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                               Entry
			category                        string
			targetUser, company, resourceID sql.NullString
			contextJSON                     []byte
			severity                        int
		)
		if err := rows.Scan(&e.ID, &category, &e.ActorID, &targetUser, &company, &e.Resource, &e.Action, &e.Effect,
			&resourceID, &e.Description, &contextJSON, &e.Success, &e.RiskScore, &severity, &e.Seal, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Category, err = CategoryString(category); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
				return nil, fmt.Errorf("entry %s: decoding context: %w", e.ID, err)
			}
		}
		e.TargetUserID = targetUser.String
		e.CompanyID = company.String
		e.ResourceID = resourceID.String
		e.Level = Severity(severity)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log_entries WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
