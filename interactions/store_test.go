package interactions

import (
	"context"
	"strings"
	"sync"

	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/google/uuid"
)

// fakeStore is an in-memory collaborator that records every lookup it serves.
type fakeStore struct {
	mu sync.Mutex

	drugs        map[int]string
	ingredients  map[int][]*string
	interactions []entities.Interaction

	// pairErr is returned by FindInteractionsByPair when the pair contains this ingredient
	pairErr      error
	pairErrOn    string
	ingredErr    error
	namesErr     error
	blockOnPairs chan struct{}

	ingredientCalls []string
	pairCalls       []Pair
	codeCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drugs:       make(map[int]string),
		ingredients: make(map[int][]*string),
	}
}

func strPtr(s string) *string { return &s }

func (f *fakeStore) withDrug(code int, name string, ingredients ...string) *fakeStore {
	f.drugs[code] = name
	for _, ing := range ingredients {
		f.ingredients[code] = append(f.ingredients[code], strPtr(ing))
	}
	return f
}

func (f *fakeStore) withInteraction(a, b, level string) *fakeStore {
	f.interactions = append(f.interactions, entities.Interaction{
		ID:          uuid.New(),
		IngredientA: a,
		IngredientB: b,
		Level:       level,
	})
	return f
}

func (f *fakeStore) GetIngredientsForDrugCodes(ctx context.Context, codes []int) ([]entities.DrugIngredient, error) {
	f.mu.Lock()
	f.codeCalls++
	f.mu.Unlock()

	if f.ingredErr != nil {
		return nil, f.ingredErr
	}

	var rows []entities.DrugIngredient
	for _, code := range codes {
		for _, ing := range f.ingredients[code] {
			rows = append(rows, entities.DrugIngredient{DrugCode: code, Ingredient: ing})
		}
	}
	return rows, nil
}

func (f *fakeStore) GetDrugNames(ctx context.Context, codes []int) ([]entities.DrugName, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}

	var rows []entities.DrugName
	for _, code := range codes {
		if name, ok := f.drugs[code]; ok {
			rows = append(rows, entities.DrugName{DrugCode: code, Name: strPtr(name)})
		}
	}
	return rows, nil
}

func (f *fakeStore) FindInteractionsByIngredient(ctx context.Context, name string) ([]entities.Interaction, error) {
	f.mu.Lock()
	f.ingredientCalls = append(f.ingredientCalls, name)
	f.mu.Unlock()

	var out []entities.Interaction
	for _, rec := range f.interactions {
		if strings.EqualFold(rec.IngredientA, name) || strings.EqualFold(rec.IngredientB, name) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindInteractionsByPair(ctx context.Context, a, b string) ([]entities.Interaction, error) {
	f.mu.Lock()
	f.pairCalls = append(f.pairCalls, Pair{A: a, B: b})
	block := f.blockOnPairs
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.pairErr != nil && (a == f.pairErrOn || b == f.pairErrOn) {
		return nil, f.pairErr
	}

	var out []entities.Interaction
	for _, rec := range f.interactions {
		ra, rb := strings.ToLower(rec.IngredientA), strings.ToLower(rec.IngredientB)
		if (ra == a && rb == b) || (ra == b && rb == a) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// leakyStore ignores the query and returns everything it holds.
type leakyStore struct {
	records []entities.Interaction
}

func (l *leakyStore) FindInteractionsByIngredient(ctx context.Context, name string) ([]entities.Interaction, error) {
	return l.records, nil
}

func (l *leakyStore) FindInteractionsByPair(ctx context.Context, a, b string) ([]entities.Interaction, error) {
	return l.records, nil
}
