package models

import "testing"

func TestNewRoomKeyStripsLeadingZerosFromCodeOnly(t *testing.T) {
	key := NewRoomKey("0092", "0101")
	if key.BuildingCode != "92" {
		t.Errorf("building code must drop leading zeros, got %q", key.BuildingCode)
	}
	if key.Room != "0101" {
		t.Errorf("room must stay verbatim, got %q", key.Room)
	}
}

func TestReferenceTablesLookups(t *testing.T) {
	tables := &ReferenceTables{
		Buildings:  map[string]string{"Howey": "0092"},
		Capacities: map[RoomKey]float64{NewRoomKey("92", "L1"): 300},
	}

	code, ok := tables.BuildingCode("Howey")
	if !ok || code != "0092" {
		t.Errorf("expected code 0092, got %q (ok=%v)", code, ok)
	}
	if _, ok := tables.BuildingCode("Unknown"); ok {
		t.Error("unknown building must not resolve")
	}

	if cap := tables.RoomCapacity("0092", "L1"); cap == nil || *cap != 300 {
		t.Errorf("expected capacity 300 via normalized key, got %v", cap)
	}
	if cap := tables.RoomCapacity("0092", "L2"); cap != nil {
		t.Errorf("unknown room must yield nil, got %v", cap)
	}

	empty := EmptyReferenceTables()
	if cap := empty.RoomCapacity("0092", "L1"); cap != nil {
		t.Error("empty tables must match nothing")
	}
}
