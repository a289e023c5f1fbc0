package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteRepository stores jobs in the deferred_commands table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a job repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts or replaces a job.
func (r *SQLiteRepository) Save(ctx context.Context, job *Job) error {
	items, err := json.Marshal(job.Items)
	if err != nil {
		return fmt.Errorf("encoding job items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO deferred_commands (id, command, items, due_at, site_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     command = excluded.command,
		     items = excluded.items,
		     due_at = excluded.due_at,
		     site_id = excluded.site_id,
		     created_at = excluded.created_at`,
		job.ID, job.Command, string(items),
		job.DueAt.UTC().Format(time.RFC3339Nano),
		nullableString(job.SiteID),
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	return nil
}

// Delete removes a job by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM deferred_commands WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// List returns all jobs, earliest due first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, command, items, due_at, site_id, created_at
		 FROM deferred_commands ORDER BY due_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var j Job
		var items, dueAt, createdAt string
		var siteID sql.NullString

		if err := rows.Scan(&j.ID, &j.Command, &items, &dueAt, &siteID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &j.Items); err != nil {
			return nil, fmt.Errorf("decoding items of job %s: %w", j.ID, err)
		}
		if j.DueAt, err = time.Parse(time.RFC3339Nano, dueAt); err != nil {
			return nil, fmt.Errorf("parsing due time of job %s: %w", j.ID, err)
		}
		if j.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing creation time of job %s: %w", j.ID, err)
		}
		j.SiteID = siteID.String
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
