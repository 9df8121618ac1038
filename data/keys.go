package data

import "github.com/alibahaloo/PharmaTrack-sub000/interactions"

func normalize(name string) string {
	return interactions.NormalizeIngredient(name)
}

// pairKey is order-independent: {a, b} and {b, a} share a key.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
