package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reportmailer/internal/domain"
)

// RecordDelivery appends d to the ledger. A second "sent" row for the same
// run is ignored and reported as inserted=false.
func RecordDelivery(ctx context.Context, db *sql.DB, d domain.Delivery) (inserted bool, err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	recipients, err := json.Marshal(d.Recipients)
	if err != nil {
		return false, err
	}

	// relies on the partial unique index on run_number WHERE status = 'sent'
	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO deliveries (id, run_number, subject, recipients, status, high_count, medium_count, attempts, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		d.ID, d.RunNumber, d.Subject, string(recipients), string(d.Status),
		d.HighCount, d.MediumCount, d.Attempts, d.Error,
		d.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

func SentForRun(ctx context.Context, db *sql.DB, run int64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM deliveries WHERE run_number = ? AND status = 'sent' LIMIT 1;`, run,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListDeliveries returns the newest rows first.
func ListDeliveries(ctx context.Context, db *sql.DB, limit int) ([]domain.Delivery, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	return queryDeliveries(ctx, db, `
SELECT id, run_number, subject, recipients, status, high_count, medium_count, attempts, error, created_at
FROM deliveries
ORDER BY created_at DESC, rowid DESC
LIMIT ?;`, limit)
}

// LastSent returns the newest sent delivery, or ok=false.
func LastSent(ctx context.Context, db *sql.DB, run int64) (domain.Delivery, bool, error) {
	query := `
SELECT id, run_number, subject, recipients, status, high_count, medium_count, attempts, error, created_at
FROM deliveries
WHERE status = 'sent' AND (? = 0 OR run_number = ?)
ORDER BY created_at DESC, rowid DESC
LIMIT 1;`
	ds, err := queryDeliveries(ctx, db, query, run, run)
	if err != nil || len(ds) == 0 {
		return domain.Delivery{}, false, err
	}
	return ds[0], true, nil
}

func queryDeliveries(ctx context.Context, db *sql.DB, query string, args ...any) ([]domain.Delivery, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var recipientsJSON, status, createdAt string
		if err := rows.Scan(
			&d.ID,
			&d.RunNumber,
			&d.Subject,
			&recipientsJSON,
			&status,
			&d.HighCount,
			&d.MediumCount,
			&d.Attempts,
			&d.Error,
			&createdAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(recipientsJSON), &d.Recipients)
		d.Status = domain.DeliveryStatus(status)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupOld drops ledger rows created before the cutoff.
func CleanupOld(ctx context.Context, db *sql.DB, olderThan time.Duration) (deleted int64, err error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old deliveries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
