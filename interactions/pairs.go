package interactions

import (
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/google/uuid"
)

// Pair is an unordered pair of normalized ingredient names.
type Pair struct {
	A string
	B string
}

// Pairs enumerates the N*(N-1)/2 unordered pairs of a duplicate-free ingredient list,
// in index order.
func Pairs(ingredients []string) []Pair {
	n := len(ingredients)
	if n < 2 {
		return nil
	}

	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{A: ingredients[i], B: ingredients[j]})
		}
	}
	return pairs
}

// Matches reports whether a record's two sides are exactly this pair, in either order.
func (p Pair) Matches(rec entities.Interaction) bool {
	a := NormalizeIngredient(rec.IngredientA)
	b := NormalizeIngredient(rec.IngredientB)
	return (a == p.A && b == p.B) || (a == p.B && b == p.A)
}

// involves reports whether name is on either side of the record.
func involves(rec entities.Interaction, name string) bool {
	return NormalizeIngredient(rec.IngredientA) == name || NormalizeIngredient(rec.IngredientB) == name
}

// recordKey is the dedup identity of a record: its ID, or the normalized
// (min side, max side, level) tuple for records loaded without one.
func recordKey(rec entities.Interaction) string {
	if rec.ID != uuid.Nil {
		return rec.ID.String()
	}

	a := NormalizeIngredient(rec.IngredientA)
	b := NormalizeIngredient(rec.IngredientB)
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b + "\x00" + NormalizeIngredient(rec.Level)
}
