package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/logger"
	"github.com/derya/enrollsync/internal/pkg/objectstore"
)

// Object keys of the reference CSVs inside the storage bucket.
const (
	CapacityObjectKey = "capacity-data/room_capacity_data.csv"
	BuildingObjectKey = "capacity-data/gt-scheduler-buildings.csv"
)

// LoadState tracks whether the reference tables have been loaded, so a
// transport failure is distinguishable from genuinely empty tables.
type LoadState int

const (
	LoadStateNotLoaded LoadState = iota
	LoadStateLoaded
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateLoaded:
		return "loaded"
	case LoadStateFailed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// ObjectGetter is the slice of the object store the repository needs.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type capacityRow struct {
	BuildingCode string  `csv:"Building Code"`
	Room         string  `csv:"Room"`
	RoomCapacity float64 `csv:"Room Capacity"`
}

type buildingRow struct {
	Building     string `csv:"Building"`
	BuildingCode string `csv:"Building Code"`
}

// ReferenceRepository loads the room-capacity and building-code CSVs from
// object storage once and serves them to every compilation. A CSV that is
// absent from the bucket yields an empty table; a transport or parse failure
// also yields empty tables but is recorded as LoadStateFailed so callers can
// report the run as degraded and Reload can retry later.
type ReferenceRepository struct {
	store ObjectGetter

	mu     sync.RWMutex
	state  LoadState
	tables *models.ReferenceTables
}

// NewReferenceRepository creates a new ReferenceRepository
func NewReferenceRepository(store ObjectGetter) *ReferenceRepository {
	return &ReferenceRepository{
		store:  store,
		tables: models.EmptyReferenceTables(),
	}
}

// Tables returns the reference tables, loading them on first use. The
// returned tables are always usable; the state tells whether they are the
// real data, confirmed-empty data or a failed load's empty fallback.
func (r *ReferenceRepository) Tables(ctx context.Context) (*models.ReferenceTables, LoadState) {
	r.mu.RLock()
	if r.state != LoadStateNotLoaded {
		tables, state := r.tables, r.state
		r.mu.RUnlock()
		return tables, state
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == LoadStateNotLoaded {
		r.load(ctx)
	}
	return r.tables, r.state
}

// Reload discards the cached tables and loads them again, regardless of the
// previous state.
func (r *ReferenceRepository) Reload(ctx context.Context) LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	return r.state
}

// State reports the current load state without triggering a load.
func (r *ReferenceRepository) State() LoadState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *ReferenceRepository) load(ctx context.Context) {
	tables := models.EmptyReferenceTables()

	capacities, capErr := loadCapacities(ctx, r.store)
	if capErr == nil {
		tables.Capacities = capacities
	}
	buildings, bldErr := loadBuildings(ctx, r.store)
	if bldErr == nil {
		tables.Buildings = buildings
	}

	r.tables = tables
	if capErr != nil || bldErr != nil {
		r.state = LoadStateFailed
		logger.Error().
			AnErr("capacity_error", capErr).
			AnErr("building_error", bldErr).
			Msg("Failed to load reference tables, continuing with empty tables")
		return
	}

	r.state = LoadStateLoaded
	logger.Info().
		Int("capacities", len(tables.Capacities)).
		Int("buildings", len(tables.Buildings)).
		Msg("Loaded reference tables")
}

func loadCapacities(ctx context.Context, store ObjectGetter) (map[models.RoomKey]float64, error) {
	data, err := store.Get(ctx, CapacityObjectKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			logger.Warn().Str("key", CapacityObjectKey).Msg("Capacity CSV missing, using empty table")
			return map[models.RoomKey]float64{}, nil
		}
		return nil, fmt.Errorf("fetching capacity CSV: %w", err)
	}

	var rows []capacityRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing capacity CSV: %w", err)
	}

	capacities := make(map[models.RoomKey]float64, len(rows))
	for _, row := range rows {
		capacities[models.NewRoomKey(row.BuildingCode, row.Room)] = row.RoomCapacity
	}
	return capacities, nil
}

func loadBuildings(ctx context.Context, store ObjectGetter) (map[string]string, error) {
	data, err := store.Get(ctx, BuildingObjectKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			logger.Warn().Str("key", BuildingObjectKey).Msg("Building CSV missing, using empty table")
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("fetching building CSV: %w", err)
	}

	var rows []buildingRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing building CSV: %w", err)
	}

	buildings := make(map[string]string, len(rows))
	for _, row := range rows {
		buildings[row.Building] = row.BuildingCode
	}
	return buildings, nil
}
