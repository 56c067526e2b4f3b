package dto

import (
	"time"

	"github.com/derya/enrollsync/internal/app/models"
)

// GenerateReportRequest is the body of an enrollment report request. Boolean
// fields are pointers so an absent field is distinguishable from false and
// can take its default.
type GenerateReportRequest struct {
	// Nterms is how many recent terms to include.
	Nterms int `json:"nterms" example:"3"`
	// Subjects filters courses to these subject codes. Empty means all.
	Subjects []string `json:"subjects" example:"CS,MATH"`
	// Ranges filters courses to these inclusive [low, high] number pairs.
	Ranges [][]int `json:"ranges"`
	// IncludeSummer includes summer terms in the count. Defaults to true.
	IncludeSummer *bool `json:"include_summer"`
	// SaveAll requests the ungrouped report. Defaults to true.
	SaveAll *bool `json:"save_all"`
	// SaveGrouped requests the crosslist-grouped report. Defaults to false.
	SaveGrouped *bool `json:"save_grouped"`
}

// Defaults returns the request's boolean fields with absent values filled in.
func (r *GenerateReportRequest) Defaults() (includeSummer, saveAll, saveGrouped bool) {
	includeSummer, saveAll, saveGrouped = true, true, false
	if r.IncludeSummer != nil {
		includeSummer = *r.IncludeSummer
	}
	if r.SaveAll != nil {
		saveAll = *r.SaveAll
	}
	if r.SaveGrouped != nil {
		saveGrouped = *r.SaveGrouped
	}
	return includeSummer, saveAll, saveGrouped
}

// JobSubmittedResponse is returned when a report job is accepted
type JobSubmittedResponse struct {
	JobID   string `json:"job_id" example:"3b241101-e2bb-4255-8caf-4136c566a962"`
	Status  string `json:"status" example:"pending"`
	Message string `json:"message" example:"Report generation started"`
}

// JobStatusResponse is the client view of a report job
type JobStatusResponse struct {
	JobID        string               `json:"job_id"`
	Status       string               `json:"status" example:"completed"`
	Progress     int                  `json:"progress" example:"100"`
	Parameters   models.JobParameters `json:"parameters"`
	CSVData      *string              `json:"csv_data,omitempty"`
	DownloadURL  *string              `json:"download_url,omitempty"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// NewJobStatusResponse builds the client view of a job record
func NewJobStatusResponse(job *models.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Parameters:   job.Parameters,
		CSVData:      job.CSVData,
		DownloadURL:  job.DownloadURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// JobListResponse wraps a list of job records
type JobListResponse struct {
	Jobs  []JobStatusResponse `json:"jobs"`
	Count int                 `json:"count"`
}

// ReferenceReloadResponse reports the outcome of a reference data reload
type ReferenceReloadResponse struct {
	State string `json:"state" example:"loaded"`
}
