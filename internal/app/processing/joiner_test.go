package processing

import (
	"math"
	"testing"

	"github.com/derya/enrollsync/internal/app/models"
)

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

func testTables() *models.ReferenceTables {
	return &models.ReferenceTables{
		Buildings: map[string]string{
			"Clough Commons": "0140",
			"Howey":          "0092",
		},
		Capacities: map[models.RoomKey]float64{
			models.NewRoomKey("0140", "152"): 200,
			models.NewRoomKey("92", "L1"):    300,
		},
	}
}

func TestEnrichJoinsCodeAndCapacity(t *testing.T) {
	records := []models.SectionRecord{
		{Building: "Clough Commons", Room: "152", EnrollmentActual: intPtr(150)},
	}

	enriched := Enrich(records, testTables())
	if len(enriched) != 1 {
		t.Fatalf("expected 1 record, got %d", len(enriched))
	}
	row := enriched[0]
	if row.BuildingCode != "0140" {
		t.Errorf("expected building code 0140, got %q", row.BuildingCode)
	}
	if row.RoomCapacity == nil || *row.RoomCapacity != 200 {
		t.Fatalf("expected capacity 200, got %v", row.RoomCapacity)
	}
	if row.Loss == nil || math.Abs(*row.Loss-0.25) > 1e-9 {
		t.Errorf("expected loss 0.25, got %v", row.Loss)
	}
}

func TestEnrichLeadingZeroNormalization(t *testing.T) {
	// Code "0092" from the building table must match a capacity entry keyed
	// without leading zeros; the room token is matched verbatim.
	records := []models.SectionRecord{
		{Building: "Howey", Room: "L1", EnrollmentActual: intPtr(60)},
	}

	enriched := Enrich(records, testTables())
	if enriched[0].RoomCapacity == nil || *enriched[0].RoomCapacity != 300 {
		t.Fatalf("expected capacity 300 via zero-stripped code, got %v", enriched[0].RoomCapacity)
	}
}

func TestEnrichUnmappedBuilding(t *testing.T) {
	records := []models.SectionRecord{
		{Building: "Mystery Hall", Room: "101", EnrollmentActual: intPtr(10)},
	}

	enriched := Enrich(records, testTables())
	row := enriched[0]
	if row.BuildingCode != "" {
		t.Errorf("unmapped building must keep an empty code, got %q", row.BuildingCode)
	}
	if row.RoomCapacity != nil {
		t.Errorf("unmapped building must not resolve a capacity, got %v", row.RoomCapacity)
	}
	if row.Loss != nil {
		t.Errorf("loss must stay nil without a capacity, got %v", row.Loss)
	}
}

func TestEnrichNilEnrollmentCountsAsZero(t *testing.T) {
	records := []models.SectionRecord{
		{Building: "Clough Commons", Room: "152"},
	}

	enriched := Enrich(records, testTables())
	if enriched[0].Loss == nil || *enriched[0].Loss != 1.0 {
		t.Errorf("missing enrollment should yield loss 1.0, got %v", enriched[0].Loss)
	}
}

func TestEnrichEmptyTables(t *testing.T) {
	records := []models.SectionRecord{
		{Building: "Clough Commons", Room: "152", EnrollmentActual: intPtr(50)},
	}

	enriched := Enrich(records, models.EmptyReferenceTables())
	row := enriched[0]
	if row.BuildingCode != "" || row.RoomCapacity != nil || row.Loss != nil {
		t.Error("empty reference tables must leave records unenriched")
	}

	enriched = Enrich(records, nil)
	if enriched[0].RoomCapacity != nil {
		t.Error("nil tables must behave like empty tables")
	}
}

func TestComputeLoss(t *testing.T) {
	if got := computeLoss(intPtr(50), floatPtr(0)); got != nil {
		t.Errorf("zero capacity must yield nil loss, got %v", got)
	}
	if got := computeLoss(intPtr(250), floatPtr(200)); got == nil || math.Abs(*got+0.25) > 1e-9 {
		t.Errorf("overfull room should yield negative loss, got %v", got)
	}
}
