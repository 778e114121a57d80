package runindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages run records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run index database and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Begin records a new run in the running state and returns it with a fresh
// identifier.
func (s *Store) Begin(ctx context.Context, run Run) (*Run, error) {
	run.ID = uuid.NewString()
	run.Status = StatusRunning
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, status, created_at, updated_at, metric, rounds, base_seed,
            collection_id, filter_id, config_id, result_id, manifest_id,
            mean_accuracy, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		run.Metric,
		run.Rounds,
		run.BaseSeed,
		nullableString(run.CollectionID),
		nullableString(run.FilterID),
		nullableString(run.ConfigID),
		nil,
		nil,
		nil,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// Complete marks a run finished with its result pointers and mean accuracy.
// The manifest ID is empty for plain (non-cascade) runs.
func (s *Store) Complete(ctx context.Context, id, resultID, manifestID string, meanAccuracy float64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, result_id = ?, manifest_id = ?, mean_accuracy = ?,
             error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		nullableString(resultID),
		nullableString(manifestID),
		meanAccuracy,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return requireAffected(res, id)
}

// Fail marks a run failed with the error it died on.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return requireAffected(res, id)
}

// Get fetches a run by identifier.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns runs newest first, filtered by status when any are given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Run, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + runColumns + ` FROM runs`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Remove deletes a run record by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const runColumns = "id, status, created_at, updated_at, metric, rounds, base_seed, collection_id, filter_id, config_id, result_id, manifest_id, mean_accuracy, error_message"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		statusStr    string
		createdRaw   string
		updatedRaw   string
		metric       string
		rounds       int
		baseSeed     int64
		collectionID sql.NullString
		filterID     sql.NullString
		configID     sql.NullString
		resultID     sql.NullString
		manifestID   sql.NullString
		meanAccuracy sql.NullFloat64
		errorMessage sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&createdRaw,
		&updatedRaw,
		&metric,
		&rounds,
		&baseSeed,
		&collectionID,
		&filterID,
		&configID,
		&resultID,
		&manifestID,
		&meanAccuracy,
		&errorMessage,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		Status:       Status(statusStr),
		Metric:       metric,
		Rounds:       rounds,
		BaseSeed:     baseSeed,
		CollectionID: collectionID.String,
		FilterID:     filterID.String,
		ConfigID:     configID.String,
		ResultID:     resultID.String,
		ManifestID:   manifestID.String,
		MeanAccuracy: meanAccuracy.Float64,
		ErrorMessage: errorMessage.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
