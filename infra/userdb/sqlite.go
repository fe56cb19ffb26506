// Package userdb persists accounts in SQLite through sqlx.
package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/users"
)

const schema = `CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'user',
    phone TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created INTEGER NOT NULL,
    updated INTEGER NOT NULL
);`

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Role         string `db:"role"`
	Phone        string `db:"phone"`
	PasswordHash string `db:"password_hash"`
	Created      int64  `db:"created"`
	Updated      int64  `db:"updated"`
}

func (r userRow) user() users.User {
	return users.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		CreatedAt:    time.UnixMilli(r.Created).UTC(),
		UpdatedAt:    time.UnixMilli(r.Updated).UTC(),
	}
}

// SQLiteStore implements users.Store on a SQLite database.
type SQLiteStore struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(ctx context.Context, path string, clk clock.Clock) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time; also serializes the existence check in Create
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &SQLiteStore{db: db, clock: clk}, nil
}

// Create inserts u inside a transaction so a taken email maps to
// users.ErrExists regardless of driver error codes.
func (s *SQLiteStore) Create(ctx context.Context, u users.User) (users.User, error) {
	u.Email = users.NormalizeEmail(u.Email)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return users.User{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(1) FROM users WHERE email = ?`, u.Email); err != nil {
		return users.User{}, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return users.User{}, users.ErrExists
	}

	now := s.clock.Now()
	row := userRow{
		ID:           uuid.NewString(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Created:      now.UnixMilli(),
		Updated:      now.UnixMilli(),
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO users
        (id, name, email, role, phone, password_hash, created, updated)
        VALUES (:id, :name, :email, :role, :phone, :password_hash, :created, :updated)`, row)
	if err != nil {
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return users.User{}, fmt.Errorf("commit transaction: %w", err)
	}
	return row.user(), nil
}

// ByEmail returns the account registered under email.
func (s *SQLiteStore) ByEmail(ctx context.Context, email string) (users.User, error) {
	const query = `SELECT id, name, email, role, phone, password_hash, created, updated
        FROM users WHERE email = ?`
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, users.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.user(), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
