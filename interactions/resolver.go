package interactions

import (
	"context"
	"strings"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
)

// IngredientResolver maps drug codes to their distinct, normalized ingredient names.
type IngredientResolver struct {
	store interfaces.IngredientSource
}

// NewIngredientResolver creates a resolver reading from store
func NewIngredientResolver(store interfaces.IngredientSource) *IngredientResolver {
	return &IngredientResolver{store: store}
}

// ResolveIngredients returns, for every requested code, its own deduplicated ingredient
// list, plus the flattened set across all codes in first-seen order. Codes without any
// ingredient still get an entry with an empty list. Blank names from the store are skipped.
func (r *IngredientResolver) ResolveIngredients(ctx context.Context, codes []int) (map[int][]string, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(err)
	}

	rows, err := r.store.GetIngredientsForDrugCodes(ctx, codes)
	if err != nil {
		return nil, nil, classify(ctx, "get ingredients for drug codes", err)
	}

	perDrug := make(map[int][]string, len(codes))
	perDrugSeen := make(map[int]map[string]struct{}, len(codes))
	for _, code := range codes {
		perDrug[code] = []string{}
		perDrugSeen[code] = make(map[string]struct{})
	}

	for _, row := range rows {
		seen, requested := perDrugSeen[row.DrugCode]
		if !requested || row.Ingredient == nil {
			continue
		}

		name := NormalizeIngredient(*row.Ingredient)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		perDrug[row.DrugCode] = append(perDrug[row.DrugCode], name)
	}

	all := make([]string, 0)
	allSeen := make(map[string]struct{})
	for _, code := range codes {
		for _, name := range perDrug[code] {
			if _, dup := allSeen[name]; dup {
				continue
			}
			allSeen[name] = struct{}{}
			all = append(all, name)
		}
	}

	return perDrug, all, nil
}

// DrugNames returns the display name of each code. Unknown codes map to nil.
func (r *IngredientResolver) DrugNames(ctx context.Context, codes []int) (map[int]*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	rows, err := r.store.GetDrugNames(ctx, codes)
	if err != nil {
		return nil, classify(ctx, "get drug names", err)
	}

	names := make(map[int]*string, len(codes))
	for _, code := range codes {
		names[code] = nil
	}
	for _, row := range rows {
		if _, requested := names[row.DrugCode]; !requested || row.Name == nil {
			continue
		}
		if names[row.DrugCode] != nil {
			continue
		}
		name := strings.TrimSpace(*row.Name)
		names[row.DrugCode] = &name
	}

	return names, nil
}
