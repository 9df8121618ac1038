package entities

// Drug is a marketed drug product identified by its integer code.
type Drug struct {
	Code        int      `json:"code"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

// DrugIngredient is one (drug code, ingredient name) row. Ingredient is nil when the
// store has a link without a substance name.
type DrugIngredient struct {
	DrugCode   int
	Ingredient *string
}

// DrugName is one (drug code, display name) row.
type DrugName struct {
	DrugCode int
	Name     *string
}
