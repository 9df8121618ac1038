// Package data provides thread-safe in-memory storage of the drug and interaction reference
// data. The DataContainer swaps a whole indexed snapshot atomically so that readers never
// observe a half-applied update.
package data

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/metrics"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// BackendName identifies this store in health output
const BackendName = "memory"

// snapshot is an immutable, fully indexed view of one reference load
type snapshot struct {
	drugs        map[int]entities.Drug
	interactions []entities.Interaction
	byIngredient map[string][]int // normalized ingredient -> indexes into interactions
	byPair       map[string][]int // pairKey -> indexes into interactions
	report       *interfaces.DataQualityReport
}

// DataContainer holds the current snapshot behind an atomic pointer for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(buildSnapshot(nil, nil))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func buildSnapshot(data *entities.ReferenceData, report *interfaces.DataQualityReport) *snapshot {
	s := &snapshot{
		drugs:        make(map[int]entities.Drug),
		interactions: []entities.Interaction{},
		byIngredient: make(map[string][]int),
		byPair:       make(map[string][]int),
		report:       report,
	}
	if data == nil {
		return s
	}

	for _, drug := range data.Drugs {
		s.drugs[drug.Code] = drug
	}

	s.interactions = append(s.interactions, data.Interactions...)
	for i, rec := range s.interactions {
		a := normalize(rec.IngredientA)
		b := normalize(rec.IngredientB)
		s.byIngredient[a] = append(s.byIngredient[a], i)
		if b != a {
			s.byIngredient[b] = append(s.byIngredient[b], i)
		}
		key := pairKey(a, b)
		s.byPair[key] = append(s.byPair[key], i)
	}

	return s
}

func (dc *DataContainer) snapshot() *snapshot {
	if s := dc.current.Load(); s != nil {
		return s
	}

	logging.Warn("Reference snapshot is empty or invalid")
	return buildSnapshot(nil, nil)
}

// GetIngredientsForDrugCodes returns one row per (code, ingredient) link. Codes without
// a drug entry produce no rows.
func (dc *DataContainer) GetIngredientsForDrugCodes(ctx context.Context, codes []int) ([]entities.DrugIngredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := dc.snapshot()
	rows := make([]entities.DrugIngredient, 0, len(codes))
	for _, code := range codes {
		drug, ok := s.drugs[code]
		if !ok {
			continue
		}
		for i := range drug.Ingredients {
			rows = append(rows, entities.DrugIngredient{DrugCode: code, Ingredient: &drug.Ingredients[i]})
		}
	}
	return rows, nil
}

// GetDrugNames returns the display name of every known code
func (dc *DataContainer) GetDrugNames(ctx context.Context, codes []int) ([]entities.DrugName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := dc.snapshot()
	rows := make([]entities.DrugName, 0, len(codes))
	for _, code := range codes {
		drug, ok := s.drugs[code]
		if !ok {
			continue
		}
		name := drug.Name
		rows = append(rows, entities.DrugName{DrugCode: code, Name: &name})
	}
	return rows, nil
}

// FindInteractionsByIngredient returns every record with name on either side
func (dc *DataContainer) FindInteractionsByIngredient(ctx context.Context, name string) ([]entities.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := dc.snapshot()
	return s.collect(s.byIngredient[normalize(name)]), nil
}

// FindInteractionsByPair returns the records whose sides are exactly {a, b}
func (dc *DataContainer) FindInteractionsByPair(ctx context.Context, a, b string) ([]entities.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := dc.snapshot()
	return s.collect(s.byPair[pairKey(normalize(a), normalize(b))]), nil
}

func (s *snapshot) collect(indexes []int) []entities.Interaction {
	out := make([]entities.Interaction, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.interactions[i])
	}
	return out
}

// GetDrug returns a drug by code for O(1) lookups
func (dc *DataContainer) GetDrug(code int) (entities.Drug, bool) {
	drug, ok := dc.snapshot().drugs[code]
	return drug, ok
}

// GetDataQualityReport returns the report computed for the current snapshot
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.snapshot().report
}

// Status summarises the container for health checks
func (dc *DataContainer) Status(ctx context.Context) (interfaces.StoreStatus, error) {
	s := dc.snapshot()
	return interfaces.StoreStatus{
		Backend:      BackendName,
		Drugs:        len(s.drugs),
		Interactions: len(s.interactions),
		LastUpdated:  dc.GetLastUpdated(),
		Updating:     dc.IsUpdating(),
	}, nil
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData indexes the new reference data and swaps it in atomically
func (dc *DataContainer) UpdateData(data *entities.ReferenceData, report *interfaces.DataQualityReport) {
	next := buildSnapshot(data, report)

	dc.current.Store(next)
	dc.lastUpdated.Store(time.Now())

	metrics.ReferenceDataRecords.WithLabelValues("drugs").Set(float64(len(next.drugs)))
	metrics.ReferenceDataRecords.WithLabelValues("interactions").Set(float64(len(next.interactions)))
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
