package entities

import "github.com/google/uuid"

// Interaction is a known interaction between two ingredients. The two sides form an
// unordered pair; IngredientA and IngredientB carry no ordering meaning.
type Interaction struct {
	ID          uuid.UUID `json:"id"`
	IngredientA string    `json:"ingredientA"`
	IngredientB string    `json:"ingredientB"`
	Level       string    `json:"level"`
	Description *string   `json:"description,omitempty"`
	Management  *string   `json:"management,omitempty"`
}
