package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the transaction store adapter: the read surface the
// aggregation paths query and the write surface only the reconciler uses.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const recordColumns = `original_id, subject_id, description, amount_cents, kind, category, occurred_at, status, last_modified_at, synced_at`

// Find returns a subject's records inside the inclusive [from, to] window,
// newest first. An empty status disables the status filter.
func (r *SQLiteRepository) Find(ctx context.Context, subjectID string, from, to time.Time, status core.Status) ([]core.TransactionRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM transaction_copies
		WHERE subject_id = ? AND occurred_at >= ? AND occurred_at <= ?`
	args := []any{subjectID, from.UTC(), to.UTC()}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY occurred_at DESC, original_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []core.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

// GetByOriginalID returns core.ErrNotFound when the record was never synced.
func (r *SQLiteRepository) GetByOriginalID(ctx context.Context, originalID, subjectID string) (core.TransactionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM transaction_copies WHERE original_id = ? AND subject_id = ?`,
		originalID, subjectID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionRecord{}, core.ErrNotFound
	}
	return rec, err
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec core.TransactionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_copies (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OriginalID, rec.SubjectID, rec.Description, rec.Amount.Cents,
		string(rec.Kind), rec.Category, rec.OccurredAt.UTC(), string(rec.Status),
		rec.LastModifiedAt.UTC(), rec.SyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction copy: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec core.TransactionRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transaction_copies
		SET description = ?, amount_cents = ?, kind = ?, category = ?,
		    occurred_at = ?, status = ?, last_modified_at = ?, synced_at = ?
		WHERE original_id = ? AND subject_id = ?`,
		rec.Description, rec.Amount.Cents, string(rec.Kind), rec.Category,
		rec.OccurredAt.UTC(), string(rec.Status), rec.LastModifiedAt.UTC(), rec.SyncedAt.UTC(),
		rec.OriginalID, rec.SubjectID)
	if err != nil {
		return fmt.Errorf("update transaction copy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CountBySubject(ctx context.Context, subjectID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transaction_copies WHERE subject_id = ?`, subjectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// MostRecentSyncedAt returns the zero time when nothing was ever synced.
func (r *SQLiteRepository) MostRecentSyncedAt(ctx context.Context, subjectID string) (time.Time, error) {
	var syncedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT synced_at FROM transaction_copies WHERE subject_id = ? ORDER BY synced_at DESC LIMIT 1`,
		subjectID).Scan(&syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("most recent synced at: %w", err)
	}
	return syncedAt, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (subject_id, name, email, currency, monthly_income_cents, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (subject_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			currency = excluded.currency,
			monthly_income_cents = excluded.monthly_income_cents,
			synced_at = excluded.synced_at`,
		p.SubjectID, p.Name, p.Email, p.Currency, p.MonthlyIncome.Cents, p.SyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, subjectID string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT subject_id, name, email, currency, monthly_income_cents, synced_at
		FROM profiles WHERE subject_id = ?`, subjectID).
		Scan(&p.SubjectID, &p.Name, &p.Email, &p.Currency, &p.MonthlyIncome.Cents, &p.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.TransactionRecord, error) {
	var (
		rec    core.TransactionRecord
		kind   string
		status string
	)
	err := row.Scan(&rec.OriginalID, &rec.SubjectID, &rec.Description, &rec.Amount.Cents,
		&kind, &rec.Category, &rec.OccurredAt, &status, &rec.LastModifiedAt, &rec.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.TransactionRecord{}, err
		}
		return core.TransactionRecord{}, fmt.Errorf("scan transaction copy: %w", err)
	}
	rec.Kind = core.Kind(kind)
	rec.Status = core.Status(status)
	return rec, nil
}
