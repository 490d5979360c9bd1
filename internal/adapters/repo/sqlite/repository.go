// Package sqlite is an alternative account backend that keeps the account
// set in a single-file SQLite database. Saves replace the whole table in
// one transaction.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrations string

const busyTimeout = 5 * time.Second

type Repository struct {
	db *sql.DB
}

var _ ports.AccountRepository = (*Repository)(nil)

func Open(ctx context.Context, path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create accounts directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open accounts database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()))
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate accounts database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phone, session_ref, session_kind, verification_url,
		authenticated, last_active, display_name, username, user_id, profile_phone
		FROM accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var (
			account    domain.Account
			phone      string
			kind       string
			lastActive string
		)
		if err := rows.Scan(&phone, &account.SessionRef, &kind, &account.VerificationURL,
			&account.Authenticated, &lastActive, &account.Profile.DisplayName,
			&account.Profile.Username, &account.Profile.UserID, &account.Profile.Phone); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.Phone = domain.Phone(phone)
		account.SessionKind = domain.SessionKind(kind)
		account.LastActive = parseTime(lastActive)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *Repository) SaveAll(ctx context.Context, accounts []domain.Account) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accounts transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO accounts(position, phone, session_ref, session_kind,
		verification_url, authenticated, last_active, display_name, username, user_id, profile_phone)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare account insert: %w", err)
	}
	defer stmt.Close()

	for i, account := range accounts {
		if _, err = stmt.ExecContext(ctx, i, string(account.Phone), account.SessionRef,
			string(account.Kind()), account.VerificationURL, account.Authenticated,
			formatTime(account.LastActive), account.Profile.DisplayName, account.Profile.Username,
			account.Profile.UserID, account.Profile.Phone); err != nil {
			return fmt.Errorf("insert account %s: %w", account.Phone, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit accounts: %w", err)
	}
	return nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
