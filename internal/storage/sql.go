package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQL is the durable KV backed by a relational table (MySQL in
// production).  Values never expire.
type SQL struct {
	db     *sql.DB
	table  string
	upsert string
}

// NewSQL wraps a MySQL db.  The table defaults to kv_store.
func NewSQL(db *sql.DB, table string) *SQL {
	s := newSQL(db, table)
	s.upsert = "INSERT INTO " + s.table + " (k, v) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = CURRENT_TIMESTAMP"
	return s
}

// NewSQLite wraps a SQLite db with the same table layout.
func NewSQLite(db *sql.DB, table string) *SQL {
	s := newSQL(db, table)
	s.upsert = "INSERT INTO " + s.table + " (k, v) VALUES (?, ?) " +
		"ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP"
	return s
}

func newSQL(db *sql.DB, table string) *SQL {
	if table == "" {
		table = "kv_store"
	}
	return &SQL{db: db, table: table}
}

// EnsureSchema creates the backing table when it does not exist.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		k VARCHAR(191) NOT NULL PRIMARY KEY,
		v TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT v FROM "+s.table+" WHERE k = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes value in a single upsert statement.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.upsert, key, value)
	return err
}

func (s *SQL) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table+" WHERE k = ?", k); err != nil {
			return err
		}
	}
	return nil
}
