// Package directory reads supervisors and clears stale registration tokens in PostgreSQL.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/lib/pq"

	"incident-notifier/internal/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is the supervisor directory backed by a users table with
// id, role and fcm_token columns.
type Store struct {
	db        *sql.DB
	listQuery string
	clearStmt string
}

// NewStore returns a Store over table.
func NewStore(db *sql.DB, table string) (*Store, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid directory table name %q", table)
	}
	t := pq.QuoteIdentifier(table)

	return &Store{
		db:        db,
		listQuery: fmt.Sprintf(`SELECT id, role, fcm_token FROM %s WHERE role = $1 ORDER BY id`, t),
		// Only clear a token that still holds the value that failed, so a device
		// that re-registered in the meantime keeps its new token.
		clearStmt: fmt.Sprintf(`UPDATE %s AS u SET fcm_token = NULL `+
			`FROM unnest($1::text[], $2::text[]) AS stale(id, token) `+
			`WHERE u.id::text = stale.id AND u.fcm_token = stale.token`, t),
	}, nil
}

// ListSupervisors returns every supervisor with its token as stored; absent tokens come back empty.
func (s *Store) ListSupervisors(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery, models.RoleSupervisor)
	if err != nil {
		return nil, fmt.Errorf("query supervisors: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var (
			r     models.Recipient
			token sql.NullString
		)
		if err := rows.Scan(&r.UserID, &r.Role, &token); err != nil {
			return nil, fmt.Errorf("scan supervisor: %w", err)
		}
		r.Token = token.String
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supervisors: %w", err)
	}

	return recipients, nil
}

// ClearTokens removes every listed token in one statement and returns the rows changed.
// Tokens that are already gone are skipped without error.
func (s *Store) ClearTokens(ctx context.Context, clears []models.TokenClear) (int64, error) {
	if len(clears) == 0 {
		return 0, nil
	}

	ids := make([]string, len(clears))
	tokens := make([]string, len(clears))
	for i, c := range clears {
		ids[i] = c.UserID
		tokens[i] = c.Token
	}

	res, err := s.db.ExecContext(ctx, s.clearStmt, pq.Array(ids), pq.Array(tokens))
	if err != nil {
		return 0, fmt.Errorf("clear tokens: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear tokens rows affected: %w", err)
	}
	return affected, nil
}
