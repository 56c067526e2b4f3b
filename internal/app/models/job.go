package models

import "time"

// JobStatus enumerates the lifecycle states of a report job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Progress returns the coarse progress percentage associated with a status.
func (s JobStatus) Progress() int {
	switch s {
	case JobStatusProcessing:
		return 50
	case JobStatusCompleted:
		return 100
	default:
		return 0
	}
}

// CourseRange is an inclusive course-number range filter.
type CourseRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether a course number falls inside the range.
func (r CourseRange) Contains(num int) bool {
	return num >= r.Low && num <= r.High
}

// JobParameters are the validated, normalized inputs of a report job.
// Subjects are uppercase; Ranges are well-formed inclusive pairs.
type JobParameters struct {
	Nterms        int           `json:"nterms"`
	Subjects      []string      `json:"subjects"`
	Ranges        []CourseRange `json:"ranges"`
	IncludeSummer bool          `json:"include_summer"`
	SaveAll       bool          `json:"save_all"`
	SaveGrouped   bool          `json:"save_grouped"`
}

// Job is one report-generation job tracked in the job store. Exactly one of
/// CSVData and DownloadURL is set once the job completes: small reports are
// embedded, large ones are stored in object storage behind a presigned URL.
type Job struct {
	ID           string
	Status       JobStatus
	Progress     int
	Parameters   JobParameters
	CSVData      *string
	DownloadURL  *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
