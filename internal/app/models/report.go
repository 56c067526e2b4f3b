package models

// FileType distinguishes the two report variants a compilation can emit.
type FileType string

const (
	FileTypeUngrouped FileType = "ungrouped"
	FileTypeGrouped   FileType = "grouped"
)

// GeneratedFile is one serialized CSV report with its metadata.
type GeneratedFile struct {
	Filename    string
	Type        FileType
	Content     []byte
	RecordCount int
	SizeBytes   int
}

// CompileResult is the outcome of one report compilation across all
// requested terms. Degraded marks a run that succeeded with reduced data
// (skipped terms, empty reference tables or a term shortfall) so callers
// can distinguish it from a fully clean run.
type CompileResult struct {
	Files              []GeneratedFile
	TermsRequested     int
	TermsProcessed     int
	ProcessedTermNames []string
	SkippedTermNames   []string
	// Shortfall is how many fewer terms were available than requested.
	Shortfall    int
	Degraded     bool
	LastUpdated  string
	TotalRecords int
}
