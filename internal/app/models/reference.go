package models

import "strings"

// RoomKey is the composite lookup key joining section locations to the
// capacity table: building code with leading zeros stripped, plus the raw
// room token. Rooms are never zero-stripped.
type RoomKey struct {
	BuildingCode string
	Room         string
}

// NewRoomKey builds the normalized lookup key for a building code and room.
func NewRoomKey(buildingCode, room string) RoomKey {
	return RoomKey{
		BuildingCode: strings.TrimLeft(buildingCode, "0"),
		Room:         room,
	}
}

// ReferenceTables holds the building-name mapping and room-capacity table
// used to enrich section records. Both tables are read-only after load and
// may safely be shared across concurrent compilations. Empty tables are
// valid and simply produce unenriched records.
type ReferenceTables struct {
	// Buildings maps a free-text building name to its building code.
	Buildings map[string]string
	// Capacities maps a normalized RoomKey to the room's seat capacity.
	Capacities map[RoomKey]float64
}

// EmptyReferenceTables returns tables that match nothing.
func EmptyReferenceTables() *ReferenceTables {
	return &ReferenceTables{
		Buildings:  map[string]string{},
		Capacities: map[RoomKey]float64{},
	}
}

// BuildingCode resolves a free-text building name to its code. The second
// return value is false when the name is unmapped.
func (t *ReferenceTables) BuildingCode(building string) (string, bool) {
	if t == nil || len(t.Buildings) == 0 {
		return "", false
	}
	code, ok := t.Buildings[building]
	return code, ok
}

// RoomCapacity looks up the capacity for a building code and room. A nil
// result means no capacity entry matched.
func (t *ReferenceTables) RoomCapacity(buildingCode, room string) *float64 {
	if t == nil || len(t.Capacities) == 0 {
		return nil
	}
	cap, ok := t.Capacities[NewRoomKey(buildingCode, room)]
	if !ok {
		return nil
	}
	return &cap
}
