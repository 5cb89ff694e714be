package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, run_id, source, source_url, title, uploader, status, raw_file, output_file, cover_file, error_message, attempts, created_at, updated_at"

// NewItem enqueues a resolved media item for a run.
func (s *Store) NewItem(ctx context.Context, runID, sourceName, sourceURL, title, uploader string) (*Item, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            run_id, source, source_url, title, uploader, status, attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		sourceName,
		sourceURL,
		nullableString(title),
		nullableString(uploader),
		StatusPending,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if !item.Status.Valid() {
		return fmt.Errorf("invalid status %q", item.Status)
	}
	item.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET
            run_id = ?, source = ?, source_url = ?, title = ?, uploader = ?,
            status = ?, raw_file = ?, output_file = ?, cover_file = ?,
            error_message = ?, attempts = ?, updated_at = ?
        WHERE id = ?`,
		item.RunID,
		item.Source,
		item.SourceURL,
		nullableString(item.Title),
		nullableString(item.Uploader),
		item.Status,
		nullableString(item.RawFile),
		nullableString(item.OutputFile),
		nullableString(item.CoverFile),
		nullableString(item.ErrorMessage),
		item.Attempts,
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ItemsByRun returns every item for a run in enqueue order.
func (s *Store) ItemsByRun(ctx context.Context, runID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns all queue items, newest run first.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// NextPending returns the oldest pending item for a run, or nil.
func (s *Store) NextPending(ctx context.Context, runID string) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE run_id = ? AND status = ? ORDER BY id LIMIT 1`,
		runID, StatusPending)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// Summary aggregates item counts for a run. An empty runID covers all runs.
func (s *Store) Summary(ctx context.Context, runID string) (HealthSummary, error) {
	query := `SELECT status, COUNT(1) FROM queue_items GROUP BY status`
	args := []any{}
	if runID != "" {
		query = `SELECT status, COUNT(1) FROM queue_items WHERE run_id = ? GROUP BY status`
		args = append(args, runID)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize queue: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan summary: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusDownloading, StatusDownloaded, StatusTranscoding:
			summary.Active += count
		case StatusCompleted:
			summary.Completed += count
		case StatusSkipped:
			summary.Skipped += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// Clear removes every queue item.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM queue_items`); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		runID        string
		sourceName   string
		sourceURL    string
		title        sql.NullString
		uploader     sql.NullString
		statusStr    string
		rawFile      sql.NullString
		outputFile   sql.NullString
		coverFile    sql.NullString
		errorMessage sql.NullString
		attempts     int
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&sourceName,
		&sourceURL,
		&title,
		&uploader,
		&statusStr,
		&rawFile,
		&outputFile,
		&coverFile,
		&errorMessage,
		&attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		RunID:        runID,
		Source:       sourceName,
		SourceURL:    sourceURL,
		Title:        title.String,
		Uploader:     uploader.String,
		Status:       Status(statusStr),
		RawFile:      rawFile.String,
		OutputFile:   outputFile.String,
		CoverFile:    coverFile.String,
		ErrorMessage: errorMessage.String,
		Attempts:     attempts,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
