package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite" // SQLite driver

	"docquery/internal/domain"
)

// SQLite is a durable tabular store backed by an embedded database file.
// Each location maps to its own table; overwrites run in one transaction so
// readers never observe a partial generation.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening segment store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS change_log (
		location   TEXT PRIMARY KEY,
		tracked    INTEGER NOT NULL DEFAULT 0,
		generation INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialising change log: %w", err)
	}
	return &SQLite{db: db}, nil
}

var locationPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func tableName(location string) (string, error) {
	if !locationPattern.MatchString(location) {
		return "", &domain.ConfigurationError{Reason: fmt.Sprintf("invalid store location %q", location)}
	}
	return "seg_" + location, nil
}

// Write replaces the full contents of location with rows in one transaction.
func (s *SQLite) Write(ctx context.Context, location string, rows []domain.Row) error {
	table, err := tableName(location)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting overwrite: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, content TEXT NOT NULL)`, table)); err != nil {
		return fmt.Errorf("creating table for %s: %w", location, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("clearing prior generation of %s: %w", location, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, content) VALUES (?, ?)`, table))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", location, err)
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.ID, row.Content); err != nil {
			return fmt.Errorf("inserting row %d into %s: %w", row.ID, location, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE change_log SET generation = generation + 1 WHERE location = ? AND tracked = 1`, location); err != nil {
		return fmt.Errorf("recording change batch for %s: %w", location, err)
	}
	return tx.Commit()
}

// EnableChangeTracking makes each subsequent overwrite of location count as
// one change batch.
func (s *SQLite) EnableChangeTracking(ctx context.Context, location string) error {
	if _, err := tableName(location); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO change_log (location, tracked, generation) VALUES (?, 1, 0)
		ON CONFLICT(location) DO UPDATE SET tracked = 1`, location)
	if err != nil {
		return fmt.Errorf("enabling change tracking for %s: %w", location, err)
	}
	return nil
}

// Rows returns the current contents of location in id order. A location
// that has never been written yields an empty result.
func (s *SQLite) Rows(ctx context.Context, location string) ([]domain.Row, error) {
	table, err := tableName(location)
	if err != nil {
		return nil, err
	}
	var exists string
	err = s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking table for %s: %w", location, err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, content FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var r domain.Row
		if err := rows.Scan(&r.ID, &r.Content); err != nil {
			return nil, fmt.Errorf("scanning row from %s: %w", location, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Generation returns the change-batch counter for location.
func (s *SQLite) Generation(ctx context.Context, location string) (int64, error) {
	var gen int64
	err := s.db.QueryRowContext(ctx,
		`SELECT generation FROM change_log WHERE location = ?`, location).Scan(&gen)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading change batch for %s: %w", location, err)
	}
	return gen, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error { return s.db.Close() }
