package interactions

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxDrugCodes bounds the drug-code entry point
	DefaultMaxDrugCodes = 20

	// DefaultMaxIngredientNames bounds the ingredient-name entry point
	DefaultMaxIngredientNames = 11
)

// NormalizeIngredient returns the canonical identity of an ingredient name: NFC,
// lower case, trimmed, inner whitespace collapsed to one space. Loaders and stores
// key names with it so queries and reference data agree.
func NormalizeIngredient(name string) string {
	name = norm.NFC.String(name)
	return strings.ToLower(strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " "))
}

// ParseDrugCodes splits a comma-separated list of drug codes. The bound applies to the
// raw token count; duplicates are then removed keeping first-seen order.
func ParseDrugCodes(raw string, maxCodes int) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &InputError{Field: "codes", Reason: "at least one drug code is required"}
	}

	tokens := strings.Split(raw, ",")
	if len(tokens) > maxCodes {
		return nil, &InputError{
			Field:  "codes",
			Reason: fmt.Sprintf("too many drug codes: got %d, maximum is %d", len(tokens), maxCodes),
		}
	}

	codes := make([]int, 0, len(tokens))
	seen := make(map[int]struct{}, len(tokens))
	for i, token := range tokens {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			return nil, &InputError{Field: "drug code", Reason: fmt.Sprintf("empty entry at position %d", i+1)}
		}

		code, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, &InputError{Field: "drug code", Token: trimmed, Reason: "not a valid integer"}
		}
		if code <= 0 {
			return nil, &InputError{Field: "drug code", Token: trimmed, Reason: "must be a positive integer"}
		}

		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

// ParseIngredientNames splits a comma-separated list of ingredient names into a
// normalized, duplicate-free list. An empty list is valid; a blank entry is not.
func ParseIngredientNames(raw string, maxNames int) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}

	tokens := strings.Split(raw, ",")
	if len(tokens) > maxNames {
		return nil, &InputError{
			Field:  "names",
			Reason: fmt.Sprintf("too many ingredient names: got %d, maximum is %d", len(tokens), maxNames),
		}
	}

	names := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for i, token := range tokens {
		name := NormalizeIngredient(token)
		if name == "" {
			return nil, &InputError{Field: "ingredient name", Reason: fmt.Sprintf("empty entry at position %d", i+1)}
		}

		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names, nil
}
