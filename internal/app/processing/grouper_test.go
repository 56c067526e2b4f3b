package processing

import (
	"math"
	"testing"

	"github.com/derya/enrollsync/internal/app/models"
)

func enrichedRow(course, crn string, actual int, loss *float64) models.EnrichedRecord {
	capacity := 200.0
	return models.EnrichedRecord{
		SectionRecord: models.SectionRecord{
			Term:               "Spring 2025",
			Subject:            course[:2],
			Course:             course,
			CRN:                crn,
			Section:            "A",
			StartTime:          "09:30",
			EndTime:            "10:45",
			Days:               "TR",
			Building:           "Clough Commons",
			Room:               "152",
			PrimaryInstructors: "Ada Lovelace",
			EnrollmentActual:   intPtr(actual),
			EnrollmentMaximum:  intPtr(actual + 10),
		},
		BuildingCode: "0140",
		RoomCapacity: &capacity,
		Loss:         loss,
	}
}

func TestGroupMergesCrosslistedSections(t *testing.T) {
	rows := []models.EnrichedRecord{
		enrichedRow("CS 4641", "100", 80, floatPtr(0.6)),
		enrichedRow("ML 4641", "200", 40, floatPtr(0.8)),
	}

	grouped := Group(rows)
	if len(grouped) != 1 {
		t.Fatalf("crosslisted rows must merge into 1 group, got %d", len(grouped))
	}
	g := grouped[0]
	if g.Course != "CS 4641, ML 4641" {
		t.Errorf("courses must comma-join in first-seen order, got %q", g.Course)
	}
	if g.CRN != "100, 200" {
		t.Errorf("CRNs must comma-join, got %q", g.CRN)
	}
	if g.PrimaryInstructors != "Ada Lovelace" {
		t.Errorf("duplicate values must join once, got %q", g.PrimaryInstructors)
	}
	if g.EnrollmentActual != 120 {
		t.Errorf("enrollment must sum, got %d", g.EnrollmentActual)
	}
	if math.Abs(g.Loss-1.4) > 1e-9 {
		t.Errorf("loss must sum, got %v", g.Loss)
	}
	if g.Count != 2 {
		t.Errorf("count must record merged rows, got %d", g.Count)
	}
	if g.RoomCapacity == nil || *g.RoomCapacity != 200 {
		t.Errorf("group must keep the shared capacity, got %v", g.RoomCapacity)
	}
}

func TestGroupSeparatesDifferentSlots(t *testing.T) {
	a := enrichedRow("CS 4641", "100", 80, nil)
	b := enrichedRow("CS 4641", "101", 80, nil)
	b.StartTime = "11:00"

	grouped := Group([]models.EnrichedRecord{a, b})
	if len(grouped) != 2 {
		t.Fatalf("different meeting times must not merge, got %d groups", len(grouped))
	}
}

func TestGroupNilCapacityRowsGroupTogether(t *testing.T) {
	a := enrichedRow("CS 1301", "100", 20, nil)
	b := enrichedRow("APPH 1040", "200", 30, nil)
	a.RoomCapacity, b.RoomCapacity = nil, nil

	grouped := Group([]models.EnrichedRecord{a, b})
	if len(grouped) != 1 {
		t.Fatalf("rows sharing a slot with no capacity must still merge, got %d", len(grouped))
	}
	if grouped[0].RoomCapacity != nil {
		t.Errorf("merged group without capacity must keep nil, got %v", grouped[0].RoomCapacity)
	}
	if grouped[0].Loss != 0 {
		t.Errorf("group with no loss values must sum to 0, got %v", grouped[0].Loss)
	}
}

func TestGroupNilNumericsCountAsZero(t *testing.T) {
	a := enrichedRow("CS 1301", "100", 25, nil)
	b := enrichedRow("CS 1301", "101", 0, nil)
	b.EnrollmentActual = nil
	b.EnrollmentMaximum = nil

	grouped := Group([]models.EnrichedRecord{a, b})
	if grouped[0].EnrollmentActual != 25 {
		t.Errorf("nil enrollment must add zero, got %d", grouped[0].EnrollmentActual)
	}
}

func TestGroupSortsByKeyColumns(t *testing.T) {
	late := enrichedRow("CS 1301", "100", 10, nil)
	late.StartTime, late.EndTime = "15:00", "16:15"
	early := enrichedRow("CS 2050", "200", 10, nil)
	early.StartTime, early.EndTime = "08:00", "08:50"

	grouped := Group([]models.EnrichedRecord{late, early})
	if grouped[0].StartTime != "08:00" || grouped[1].StartTime != "15:00" {
		t.Error("groups must be sorted by their key columns")
	}
}

func TestGroupEmptyInput(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Errorf("empty input must yield no groups, got %d", len(got))
	}
}
