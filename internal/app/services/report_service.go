package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/app/processing"
	"github.com/derya/enrollsync/internal/app/repositories"
	"github.com/derya/enrollsync/internal/pkg/apperrors"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

// ScheduleSource is the slice of the schedule client the service needs.
type ScheduleSource interface {
	FetchNTerms(ctx context.Context, n int, includeSummer bool) ([]string, error)
	FetchTermPayload(ctx context.Context, term string) (*models.TermPayload, error)
	FetchEnrollment(ctx context.Context, term string, crns []string) (map[string]models.Enrollment, error)
}

// JobStore persists report jobs.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, update repositories.JobUpdate) error
	ListRecent(ctx context.Context, status *models.JobStatus, limit int) ([]*models.Job, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// FileStore persists generated report files and issues download URLs.
type FileStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
}

// ReferenceSource serves the capacity and building reference tables.
type ReferenceSource interface {
	Tables(ctx context.Context) (*models.ReferenceTables, repositories.LoadState)
}

// ReportConfig holds the report-generation tunables.
type ReportConfig struct {
	// ProcessingTimeout bounds one background job run.
	ProcessingTimeout time.Duration
	// MaxEmbedSize is the largest CSV embedded directly in the job record.
	MaxEmbedSize int
	// DownloadURLTTL is the lifetime of presigned download URLs.
	DownloadURLTTL time.Duration
}

func (c ReportConfig) withDefaults() ReportConfig {
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = 14 * time.Minute
	}
	if c.MaxEmbedSize <= 0 {
		c.MaxEmbedSize = 1 << 20
	}
	if c.DownloadURLTTL <= 0 {
		c.DownloadURLTTL = 24 * time.Hour
	}
	return c
}

// ReportService compiles enrollment reports and manages their jobs. Submitted
// jobs run on a background goroutine bounded by the processing timeout.
type ReportService struct {
	source ScheduleSource
	jobs   JobStore
	files  FileStore
	refs   ReferenceSource
	cfg    ReportConfig

	now func() time.Time
}

// NewReportService creates a new report service instance
func NewReportService(source ScheduleSource, jobs JobStore, files FileStore, refs ReferenceSource, cfg ReportConfig) *ReportService {
	return &ReportService{
		source: source,
		jobs:   jobs,
		files:  files,
		refs:   refs,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

// SubmitJob creates a pending job for the given parameters and starts
// processing it in the background. The returned job is the pending record.
func (s *ReportService) SubmitJob(ctx context.Context, params models.JobParameters) (*models.Job, error) {
	job := &models.Job{
		ID:         uuid.NewString(),
		Status:     models.JobStatusPending,
		Progress:   models.JobStatusPending.Progress(),
		Parameters: params,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job record: %w", err)
	}

	logger.Info().Str("job_id", job.ID).Msg("Report job submitted")
	go s.runJob(job.ID, params)
	return job, nil
}

// GetJob fetches a job by id. A malformed id is rejected before touching
// the store.
func (s *ReportService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidJobID, id)
	}
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns the most recent jobs, optionally filtered by status.
func (s *ReportService) ListJobs(ctx context.Context, status *models.JobStatus, limit int) ([]*models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.jobs.ListRecent(ctx, status, limit)
}

// CleanupExpiredJobs deletes job records older than the retention window and
// returns how many were removed.
func (s *ReportService) CleanupExpiredJobs(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := s.jobs.DeleteOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleaning up expired jobs: %w", err)
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("Removed expired job records")
	}
	return deleted, nil
}

// runJob drives one job through processing to completion or failure. It is
// detached from the submit request's context: the job keeps running after
// the 202 response, bounded only by the processing timeout.
func (s *ReportService) runJob(jobID string, params models.JobParameters) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProcessingTimeout)
	defer cancel()

	if err := s.jobs.Update(ctx, jobID, repositories.JobUpdate{Status: models.JobStatusProcessing}); err != nil {
		logger.Error().Str("job_id", jobID).Err(err).Msg("Failed to mark job processing")
		return
	}

	result, err := s.Compile(ctx, params)
	if err != nil {
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = apperrors.ErrProcessingTimeout.Error()
		}
		s.failJob(jobID, message)
		return
	}

	if err := s.completeJob(ctx, jobID, result); err != nil {
		s.failJob(jobID, fmt.Sprintf("storing results: %v", err))
		return
	}
	logger.Info().
		Str("job_id", jobID).
		Int("terms", result.TermsProcessed).
		Int("records", result.TotalRecords).
		Bool("degraded", result.Degraded).
		Msg("Report job completed")
}

func (s *ReportService) failJob(jobID, message string) {
	// The run context may already be past its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Error().Str("job_id", jobID).Str("reason", message).Msg("Report job failed")
	if err := s.jobs.Update(ctx, jobID, repositories.JobUpdate{
		Status:       models.JobStatusFailed,
		ErrorMessage: &message,
	}); err != nil {
		logger.Error().Str("job_id", jobID).Err(err).Msg("Failed to mark job failed")
	}
}

// completeJob stores every generated file in the file store and finishes the
// job record: the primary file is embedded when small enough, otherwise the
// record carries a presigned download URL.
func (s *ReportService) completeJob(ctx context.Context, jobID string, result *models.CompileResult) error {
	if len(result.Files) == 0 {
		return fmt.Errorf("compilation produced no files")
	}

	for _, file := range result.Files {
		key := generatedFileKey(jobID, file.Filename)
		if err := s.files.Put(ctx, key, file.Content, "text/csv"); err != nil {
			return fmt.Errorf("storing %s: %w", file.Filename, err)
		}
	}

	primary := result.Files[0]
	update := repositories.JobUpdate{Status: models.JobStatusCompleted}
	if primary.SizeBytes <= s.cfg.MaxEmbedSize {
		content := string(primary.Content)
		update.CSVData = &content
	} else {
		url, err := s.files.PresignedURL(ctx, generatedFileKey(jobID, primary.Filename), primary.Filename, s.cfg.DownloadURLTTL)
		if err != nil {
			return fmt.Errorf("presigning %s: %w", primary.Filename, err)
		}
		update.DownloadURL = &url
	}
	return s.jobs.Update(ctx, jobID, update)
}

func generatedFileKey(jobID, filename string) string {
	return fmt.Sprintf("generated-files/%s/%s", jobID, filename)
}

// Compile fetches, enriches and serializes the report for the given
// parameters. Terms that fail to fetch or match nothing are skipped with a
// warning; the run fails only when no term at all could be processed.
func (s *ReportService) Compile(ctx context.Context, params models.JobParameters) (*models.CompileResult, error) {
	terms, err := s.source.FetchNTerms(ctx, params.Nterms, params.IncludeSummer)
	if err != nil {
		return nil, fmt.Errorf("fetching term list: %w", err)
	}
	if len(terms) == 0 {
		return nil, apperrors.ErrNoTermsAvailable
	}

	tables, refState := s.refs.Tables(ctx)

	result := &models.CompileResult{
		TermsRequested: params.Nterms,
		Shortfall:      params.Nterms - len(terms),
	}

	var allRecords []models.EnrichedRecord
	for _, term := range terms {
		termName := models.ParseTermName(term)
		records, updatedAt, err := s.processTerm(ctx, term, params, tables)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Str("term", termName).Err(err).Msg("Skipping term")
			result.SkippedTermNames = append(result.SkippedTermNames, termName)
			continue
		}
		if len(records) == 0 {
			logger.Warn().Str("term", termName).Msg("No sections matched filters, skipping term")
			result.SkippedTermNames = append(result.SkippedTermNames, termName)
			continue
		}

		// Terms arrive most recent first, so the first processed term's
		// update time names the report files.
		if result.LastUpdated == "" {
			result.LastUpdated = updatedAt
		}
		result.ProcessedTermNames = append(result.ProcessedTermNames, termName)
		result.TermsProcessed++
		allRecords = append(allRecords, records...)
	}

	if result.TermsProcessed == 0 {
		return nil, apperrors.ErrNoTermsProcessed
	}

	processing.SortRecords(allRecords)
	result.TotalRecords = len(allRecords)
	result.Degraded = len(result.SkippedTermNames) > 0 ||
		result.Shortfall > 0 ||
		refState == repositories.LoadStateFailed

	timestamp := processing.ReportTimestamp(result.LastUpdated, s.now())
	if params.SaveAll {
		content, err := processing.MarshalRecords(allRecords)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, models.GeneratedFile{
			Filename:    processing.ReportFilename(models.FileTypeUngrouped, timestamp),
			Type:        models.FileTypeUngrouped,
			Content:     content,
			RecordCount: len(allRecords),
			SizeBytes:   len(content),
		})
	}
	if params.SaveGrouped {
		grouped := processing.Group(allRecords)
		content, err := processing.MarshalGrouped(grouped)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, models.GeneratedFile{
			Filename:    processing.ReportFilename(models.FileTypeGrouped, timestamp),
			Type:        models.FileTypeGrouped,
			Content:     content,
			RecordCount: len(grouped),
			SizeBytes:   len(content),
		})
	}

	return result, nil
}

// processTerm turns one term into enriched section records.
func (s *ReportService) processTerm(ctx context.Context, term string, params models.JobParameters, tables *models.ReferenceTables) ([]models.EnrichedRecord, string, error) {
	payload, err := s.source.FetchTermPayload(ctx, term)
	if err != nil {
		return nil, "", err
	}

	courses, meta := processing.ParseCourses(payload, params.Subjects, params.Ranges)
	if len(meta) == 0 {
		return nil, payload.UpdatedAt, nil
	}

	crns := make([]string, 0, len(meta))
	for crn := range meta {
		crns = append(crns, crn)
	}
	enrollment, err := s.source.FetchEnrollment(ctx, term, crns)
	if err != nil {
		return nil, payload.UpdatedAt, err
	}

	records := processing.BuildRecords(term, courses, meta, enrollment)
	return processing.Enrich(records, tables), payload.UpdatedAt, nil
}
