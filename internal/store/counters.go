package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// NextRunNumber bumps and returns the named local run counter. It is used
// when the CI platform does not supply a run number.
func NextRunNumber(ctx context.Context, db *sql.DB, name string) (int64, error) {
	name = normalizeCounterKey(name)
	if name == "" {
		return 0, errors.New("counter name is empty")
	}

	var n int64
	err := db.QueryRowContext(ctx, `
INSERT INTO counters(name, value, updated_at)
VALUES(?, 1, ?)
ON CONFLICT(name) DO UPDATE SET
  value = value + 1,
  updated_at = excluded.updated_at
RETURNING value;
`, name, now()).Scan(&n)
	return n, err
}

// ObserveRunNumber raises the counter to at least n so local numbering
// continues after the last CI run.
func ObserveRunNumber(ctx context.Context, db *sql.DB, name string, n int64) error {
	name = normalizeCounterKey(name)
	if name == "" || n <= 0 {
		return nil
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO counters(name, value, updated_at)
VALUES(?,?,?)
ON CONFLICT(name) DO UPDATE SET
  value = MAX(value, excluded.value),
  updated_at = excluded.updated_at;
`, name, n, now())
	return err
}

// CurrentRunNumber returns 0 when the counter was never used.
func CurrentRunNumber(ctx context.Context, db *sql.DB, name string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ? LIMIT 1;`,
		normalizeCounterKey(name),
	).Scan(&n)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

func normalizeCounterKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	return s
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
