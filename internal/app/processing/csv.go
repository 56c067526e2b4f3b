package processing

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

const reportTimeZone = "America/New_York"

// SortRecords orders the combined report by term then course name.
func SortRecords(records []models.EnrichedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Term != records[j].Term {
			return records[i].Term < records[j].Term
		}
		return records[i].Course < records[j].Course
	})
}

// MarshalRecords renders the ungrouped report as CSV bytes.
func MarshalRecords(records []models.EnrichedRecord) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("marshaling enrollment records: %w", err)
	}
	return out, nil
}

// MarshalGrouped renders the grouped report as CSV bytes.
func MarshalGrouped(records []models.GroupedRecord) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("marshaling grouped records: %w", err)
	}
	return out, nil
}

// ReportTimestamp derives the filename timestamp from the crawler's
// "last updated" time of the most recent term, rendered in Eastern time.
// An unparseable or empty timestamp falls back to the current time.
func ReportTimestamp(updatedAt string, now time.Time) string {
	loc, err := time.LoadLocation(reportTimeZone)
	if err != nil {
		loc = time.UTC
	}

	ts := now
	if updatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			logger.Warn().
				Str("updated_at", updatedAt).
				Msg("Unparseable update timestamp, using current time for report filename")
		} else {
			ts = parsed
		}
	}
	return ts.In(loc).Format("2006-01-02-1504")
}

// ReportFilename builds the report filename for a timestamp, prefixing
// grouped reports.
func ReportFilename(fileType models.FileType, timestamp string) string {
	name := fmt.Sprintf("enrollment_data_%s.csv", timestamp)
	if fileType == models.FileTypeGrouped {
		name = "grouped_" + name
	}
	return name
}
