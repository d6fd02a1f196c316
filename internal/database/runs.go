package database

import (
	"context"
	"time"

	"media-library/internal/compress"
)

// RunRecord is one finished compression run.
type RunRecord struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Scope     string        `json:"scope"`
	Category  string        `json:"category,omitempty"`
	Codec     string        `json:"codec"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Cancelled bool          `json:"cancelled"`
}

// NewRunRecord builds the log entry of a finished run.
func NewRunRecord(job compress.Job, res compress.Result, startedAt time.Time) RunRecord {
	return RunRecord{
		StartedAt: startedAt,
		Duration:  res.Duration,
		Scope:     string(job.Scope),
		Category:  job.Category,
		Codec:     string(job.Codec),
		Total:     res.Total,
		Processed: res.Processed,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
		Cancelled: res.Cancelled,
	}
}

// RecordRun appends a run to the log and returns its ID.
func (d *Database) RecordRun(ctx context.Context, r RunRecord) (int64, error) {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO compression_runs
			(started_at, duration_ms, scope, category, codec, total, processed, failed, skipped, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.StartedAt.Unix(), r.Duration.Milliseconds(), r.Scope, r.Category, r.Codec,
		r.Total, r.Processed, r.Failed, r.Skipped, r.Cancelled)
	recordQuery("record_run", start, err)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentRuns returns up to limit runs, newest first.
func (d *Database) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	start := time.Now()
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, scope, category, codec, total, processed, failed, skipped, cancelled
		FROM compression_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		recordQuery("recent_runs", start, err)
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r         RunRecord
			startedAt int64
			duration  int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &duration, &r.Scope, &r.Category, &r.Codec,
			&r.Total, &r.Processed, &r.Failed, &r.Skipped, &r.Cancelled); err != nil {
			recordQuery("recent_runs", start, err)
			return nil, err
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(duration) * time.Millisecond
		runs = append(runs, r)
	}
	err = rows.Err()
	recordQuery("recent_runs", start, err)
	return runs, err
}
