package referenceparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// interactionNamespace seeds the name-based ids of catalogue entries without an explicit id
var interactionNamespace = uuid.MustParse("5b7e2c4a-3f0d-4d8e-9a61-0c2f6b1d9e47")

type catalogueFile struct {
	Interactions []catalogueEntry `yaml:"interactions"`
}

type catalogueEntry struct {
	ID          string `yaml:"id"`
	A           string `yaml:"a"`
	B           string `yaml:"b"`
	Level       string `yaml:"level"`
	Description string `yaml:"description"`
	Management  string `yaml:"management"`
}

// InteractionID derives a stable id from the unordered pair and level, so reloading the
// same catalogue yields the same ids.
func InteractionID(a, b, level string) uuid.UUID {
	a, b = NormalizeName(a), NormalizeName(b)
	if b < a {
		a, b = b, a
	}
	return uuid.NewSHA1(interactionNamespace, []byte(a+"\x00"+b+"\x00"+strings.ToLower(strings.TrimSpace(level))))
}

// parseCatalogue reads the YAML interaction catalogue. Entries with a blank side or level
// are kept so the data quality report can count them.
func parseCatalogue(r io.Reader) ([]entities.Interaction, error) {
	var file catalogueFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return []entities.Interaction{}, nil
		}
		return nil, fmt.Errorf("failed to decode interaction catalogue: %w", err)
	}

	records := make([]entities.Interaction, 0, len(file.Interactions))
	for i, entry := range file.Interactions {
		rec := entities.Interaction{
			IngredientA: NormalizeName(entry.A),
			IngredientB: NormalizeName(entry.B),
			Level:       strings.ToLower(strings.TrimSpace(entry.Level)),
			Description: optional(entry.Description),
			Management:  optional(entry.Management),
		}

		if entry.ID != "" {
			id, err := uuid.Parse(entry.ID)
			if err != nil {
				return nil, fmt.Errorf("interaction %d: invalid id %q: %w", i+1, entry.ID, err)
			}
			rec.ID = id
		} else {
			rec.ID = InteractionID(rec.IngredientA, rec.IngredientB, rec.Level)
		}

		records = append(records, rec)
	}

	return records, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
