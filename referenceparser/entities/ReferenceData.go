package entities

// ReferenceData is the full result of one parsing run.
type ReferenceData struct {
	Drugs        []Drug
	Interactions []Interaction

	// OrphanCompositionCodes lists drug codes found in the compositions file with no
	// matching drug row.
	OrphanCompositionCodes []int
}
