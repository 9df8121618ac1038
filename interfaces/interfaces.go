// Package interfaces defines core abstractions for the interactions API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

// DataQualityReport provides a summary of data quality issues found in a reference load
type DataQualityReport struct {
	DrugsWithoutCompositions     int   `json:"drugs_without_compositions"`
	DrugsWithoutCompositionsList []int `json:"drugs_without_compositions_list"` // First 10 codes
	OrphanCompositions           int   `json:"orphan_compositions"`
	OrphanCompositionsList       []int `json:"orphan_compositions_list"` // First 10 codes
	InteractionsWithBlankSide    int   `json:"interactions_with_blank_side"`
	SelfInteractions             int   `json:"self_interactions"`
	DuplicateInteractions        int   `json:"duplicate_interactions"`
}

// IngredientSource resolves drug codes to their ingredients and display names.
type IngredientSource interface {
	GetIngredientsForDrugCodes(ctx context.Context, codes []int) ([]entities.DrugIngredient, error)
	GetDrugNames(ctx context.Context, codes []int) ([]entities.DrugName, error)
}

// InteractionSource looks up known interaction records.
type InteractionSource interface {
	// FindInteractionsByIngredient returns every record with name on either side.
	FindInteractionsByIngredient(ctx context.Context, name string) ([]entities.Interaction, error)

	// FindInteractionsByPair returns the records whose two sides are exactly {a, b}, in either order.
	FindInteractionsByPair(ctx context.Context, a, b string) ([]entities.Interaction, error)
}

// ReferenceStore is the read-only collaborator consumed by the resolution core.
type ReferenceStore interface {
	IngredientSource
	InteractionSource
}

// StoreStatus is a point-in-time summary of a reference store
type StoreStatus struct {
	Backend      string
	Drugs        int
	Interactions int
	LastUpdated  time.Time // Zero when the backend does not track refreshes
	Updating     bool
}

// StatusProvider reports the state of a reference store for health checks.
type StatusProvider interface {
	Status(ctx context.Context) (StoreStatus, error)
}

// DataStore defines the contract for the in-memory reference store.
// It provides thread-safe access with atomic snapshot swaps for zero-downtime updates.
type DataStore interface {
	ReferenceStore
	StatusProvider

	GetDrug(code int) (entities.Drug, bool)
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport

	// Data update methods
	UpdateData(data *entities.ReferenceData, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for loading reference data from external sources.
type Parser interface {
	ParseAll(ctx context.Context) (*entities.ReferenceData, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// InteractionResolver is the contract of the resolution core as seen by the HTTP layer.
type InteractionResolver interface {
	ResolveByDrugCodes(ctx context.Context, codes string) (*DrugResult, error)
	ResolveByIngredientNames(ctx context.Context, names string) (*IngredientResult, error)
	LookupDrug(ctx context.Context, code int) (*entities.Drug, error)
}

// IngredientFlag marks whether one ingredient of a drug is implicated in an interaction.
type IngredientFlag struct {
	Ingredient     string `json:"ingredient"`
	HasInteraction bool   `json:"hasInteraction"`
}

// DrugEntry is the per-drug part of a drug-oriented result.
type DrugEntry struct {
	DrugCode    int              `json:"drugCode"`
	DrugName    *string          `json:"drugName"`
	Ingredients []IngredientFlag `json:"ingredients"`
}

// DrugResult is returned by the drug-code entry point.
type DrugResult struct {
	Drugs        []DrugEntry            `json:"drugs"`
	Interactions []entities.Interaction `json:"interactions"`
}

// IngredientResult is returned by the ingredient-name entry point.
type IngredientResult struct {
	Interactions []entities.Interaction `json:"interactions"`
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ResolveByDrugCodes(w http.ResponseWriter, r *http.Request)
	ResolveByIngredientNames(w http.ResponseWriter, r *http.Request)
	FindDrugByCode(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time, zero when none is scheduled
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateDrug checks if a drug entity is valid
	ValidateDrug(d *entities.Drug) error

	// ValidateInteraction checks if an interaction record is usable
	ValidateInteraction(i *entities.Interaction) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(data *entities.ReferenceData) *DataQualityReport

	// ValidateQuery validates raw query parameters before tokenisation
	ValidateQuery(input string) error
}
