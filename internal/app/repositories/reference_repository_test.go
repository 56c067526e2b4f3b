package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/derya/enrollsync/internal/pkg/objectstore"
)

type fakeObjectStore struct {
	objects map[string][]byte
	err     error
	gets    int
}

func (f *fakeObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return data, nil
}

func TestReferenceRepositoryLoads(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		CapacityObjectKey: []byte("Building Code,Room,Room Capacity\n0140,152,200\n0092,L1,300\n"),
		BuildingObjectKey: []byte("Building,Building Code\nClough Commons,0140\nHowey,0092\n"),
	}}
	repo := NewReferenceRepository(store)

	tables, state := repo.Tables(context.Background())
	if state != LoadStateLoaded {
		t.Fatalf("expected loaded state, got %v", state)
	}
	if code, ok := tables.BuildingCode("Clough Commons"); !ok || code != "0140" {
		t.Errorf("unexpected building lookup: %q, %v", code, ok)
	}
	if cap := tables.RoomCapacity("0140", "152"); cap == nil || *cap != 200 {
		t.Errorf("unexpected capacity lookup: %v", cap)
	}

	// Second call must serve the cached tables.
	gets := store.gets
	repo.Tables(context.Background())
	if store.gets != gets {
		t.Error("tables must be loaded once")
	}
}

func TestReferenceRepositoryMissingObjectsAreEmptyTables(t *testing.T) {
	repo := NewReferenceRepository(&fakeObjectStore{objects: map[string][]byte{}})

	tables, state := repo.Tables(context.Background())
	if state != LoadStateLoaded {
		t.Fatalf("missing CSVs must still count as loaded, got %v", state)
	}
	if len(tables.Buildings) != 0 || len(tables.Capacities) != 0 {
		t.Error("missing CSVs must yield empty tables")
	}
}

func TestReferenceRepositoryTransportFailure(t *testing.T) {
	store := &fakeObjectStore{err: errors.New("connection refused")}
	repo := NewReferenceRepository(store)

	tables, state := repo.Tables(context.Background())
	if state != LoadStateFailed {
		t.Fatalf("transport failure must be recorded, got %v", state)
	}
	if tables == nil || len(tables.Capacities) != 0 {
		t.Error("failed load must still yield usable empty tables")
	}

	// A later Reload with a healthy store must recover.
	store.err = nil
	store.objects = map[string][]byte{
		CapacityObjectKey: []byte("Building Code,Room,Room Capacity\n92,L1,300\n"),
		BuildingObjectKey: []byte("Building,Building Code\nHowey,0092\n"),
	}
	if state := repo.Reload(context.Background()); state != LoadStateLoaded {
		t.Fatalf("expected recovery after reload, got %v", state)
	}
	tables, _ = repo.Tables(context.Background())
	if cap := tables.RoomCapacity("0092", "L1"); cap == nil || *cap != 300 {
		t.Errorf("expected reloaded capacity via zero-stripped key, got %v", cap)
	}
}

func TestReferenceRepositoryParseFailure(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		CapacityObjectKey: []byte("Building Code,Room,Room Capacity\n0140,152,not-a-number\n"),
		BuildingObjectKey: []byte("Building,Building Code\nHowey,0092\n"),
	}}
	repo := NewReferenceRepository(store)

	_, state := repo.Tables(context.Background())
	if state != LoadStateFailed {
		t.Fatalf("a parse failure must be recorded, got %v", state)
	}
}

func TestLoadStateString(t *testing.T) {
	if LoadStateNotLoaded.String() != "not_loaded" || LoadStateLoaded.String() != "loaded" || LoadStateFailed.String() != "failed" {
		t.Error("unexpected load state names")
	}
}
