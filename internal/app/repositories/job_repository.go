package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/apperrors"
	"github.com/derya/enrollsync/internal/pkg/dberrors"
)

// JobRepository handles database operations for report jobs
type JobRepository struct {
	db *pgxpool.Pool
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job into the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	params, err := json.Marshal(job.Parameters)
	if err != nil {
		return fmt.Errorf("error encoding job parameters: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, status, progress, parameters
		)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		job.ID,
		job.Status,
		job.Progress,
		params,
	).Scan(&job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "jobs_pkey") {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("error creating job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT
			id, status, progress, parameters, csv_data, download_url, error_message,
			created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var job models.Job
	var params []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.Status,
		&job.Progress,
		&params,
		&job.CSVData,
		&job.DownloadURL,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, fmt.Errorf("error retrieving job: %w", err)
	}

	if err := json.Unmarshal(params, &job.Parameters); err != nil {
		return nil, fmt.Errorf("error decoding job parameters: %w", err)
	}
	return &job, nil
}

// JobUpdate carries the mutable fields of a job status transition. Nil
// fields are left untouched.
type JobUpdate struct {
	Status       models.JobStatus
	CSVData      *string
	DownloadURL  *string
	ErrorMessage *string
}

// Update applies a status transition to a job. Progress is derived from the
// new status.
func (r *JobRepository) Update(ctx context.Context, id string, update JobUpdate) error {
	builder := squirrel.Update("jobs").
		Set("status", update.Status).
		Set("progress", update.Status.Progress()).
		Set("updated_at", time.Now()).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	if update.CSVData != nil {
		builder = builder.Set("csv_data", *update.CSVData)
	}
	if update.DownloadURL != nil {
		builder = builder.Set("download_url", *update.DownloadURL)
	}
	if update.ErrorMessage != nil {
		builder = builder.Set("error_message", *update.ErrorMessage)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("error building job update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrJobNotFound
	}
	return nil
}

// ListRecent retrieves the most recently created jobs, optionally filtered
// by status.
func (r *JobRepository) ListRecent(ctx context.Context, status *models.JobStatus, limit int) ([]*models.Job, error) {
	builder := squirrel.Select(
		"id", "status", "progress", "parameters", "csv_data", "download_url",
		"error_message", "created_at", "updated_at",
	).
		From("jobs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	if status != nil {
		builder = builder.Where("status = ?", *status)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building job list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var job models.Job
		var params []byte
		if err := rows.Scan(
			&job.ID,
			&job.Status,
			&job.Progress,
			&params,
			&job.CSVData,
			&job.DownloadURL,
			&job.ErrorMessage,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning job row: %w", err)
		}
		if err := json.Unmarshal(params, &job.Parameters); err != nil {
			return nil, fmt.Errorf("error decoding job parameters: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

// DeleteOlderThan removes jobs created before the cutoff and returns how
// many were deleted.
func (r *JobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting old jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
