package interactions

import (
	"slices"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

// ImplicatedSet returns every normalized ingredient appearing on either side of a record.
func ImplicatedSet(records []entities.Interaction) map[string]struct{} {
	set := make(map[string]struct{}, len(records)*2)
	for _, rec := range records {
		set[NormalizeIngredient(rec.IngredientA)] = struct{}{}
		set[NormalizeIngredient(rec.IngredientB)] = struct{}{}
	}
	return set
}

// BuildDrugOrientedResult flags, for each drug's ingredient list, the ingredients that take
// part in at least one matched interaction. Drugs are listed by ascending code; both lists
// are always present, even when empty.
func BuildDrugOrientedResult(
	drugIngredients map[int][]string,
	drugNames map[int]*string,
	records []entities.Interaction,
) *interfaces.DrugResult {
	implicated := ImplicatedSet(records)

	codes := make([]int, 0, len(drugIngredients))
	for code := range drugIngredients {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	drugs := make([]interfaces.DrugEntry, 0, len(codes))
	for _, code := range codes {
		ingredients := drugIngredients[code]
		flags := make([]interfaces.IngredientFlag, 0, len(ingredients))
		for _, ingredient := range ingredients {
			_, hit := implicated[NormalizeIngredient(ingredient)]
			flags = append(flags, interfaces.IngredientFlag{
				Ingredient:     ingredient,
				HasInteraction: hit,
			})
		}

		drugs = append(drugs, interfaces.DrugEntry{
			DrugCode:    code,
			DrugName:    drugNames[code],
			Ingredients: flags,
		})
	}

	if records == nil {
		records = []entities.Interaction{}
	}

	return &interfaces.DrugResult{
		Drugs:        drugs,
		Interactions: records,
	}
}
