package processing

import (
	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

// Enrich joins section records against the reference tables: building names
// resolve to building codes, rooms resolve to seat capacities, and Loss is
// the unused share of the room when a capacity is known. Unmatched rows keep
// an empty code and nil capacity; empty tables leave every row unenriched.
func Enrich(records []models.SectionRecord, tables *models.ReferenceTables) []models.EnrichedRecord {
	if tables == nil {
		tables = models.EmptyReferenceTables()
	}

	enriched := make([]models.EnrichedRecord, 0, len(records))
	unmapped := make(map[string]struct{})
	matched := 0

	for _, rec := range records {
		row := models.EnrichedRecord{SectionRecord: rec}

		if code, ok := tables.BuildingCode(rec.Building); ok {
			row.BuildingCode = code
		} else if rec.Building != "" {
			unmapped[rec.Building] = struct{}{}
		}

		row.RoomCapacity = tables.RoomCapacity(row.BuildingCode, rec.Room)
		if row.RoomCapacity != nil {
			matched++
		}
		row.Loss = computeLoss(rec.EnrollmentActual, row.RoomCapacity)

		enriched = append(enriched, row)
	}

	if len(unmapped) > 0 {
		names := make([]string, 0, len(unmapped))
		for name := range unmapped {
			names = append(names, name)
		}
		logger.Warn().
			Strs("buildings", names).
			Msg("Buildings without a code mapping, rows kept with empty code")
	}
	logger.Info().
		Int("records", len(enriched)).
		Int("with_capacity", matched).
		Msg("Joined section records with room capacity data")

	return enriched
}

// computeLoss returns 1 - enrollment/capacity. Loss is undefined (nil) when
// no positive capacity is known; a missing enrollment counts as zero.
func computeLoss(actual *int, capacity *float64) *float64 {
	if capacity == nil || *capacity <= 0 {
		return nil
	}
	enrolled := 0.0
	if actual != nil {
		enrolled = float64(*actual)
	}
	loss := 1.0 - enrolled / *capacity
	return &loss
}
