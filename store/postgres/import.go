package postgres

import (
	"context"
	"fmt"

	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ImportResult counts the rows written by Import
type ImportResult struct {
	Drugs        int64
	Ingredients  int64
	Interactions int64
}

// Import replaces the stored reference data with data in a single transaction, so
// readers see either the previous load or the new one.
func (s *Store) Import(ctx context.Context, data *entities.ReferenceData) (ImportResult, error) {
	var result ImportResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE drug_ingredients, drugs, interactions`); err != nil {
		return result, fmt.Errorf("truncate reference tables: %w", err)
	}

	drugRows := make([][]any, 0, len(data.Drugs))
	var ingredientRows [][]any
	for _, drug := range data.Drugs {
		drugRows = append(drugRows, []any{int64(drug.Code), drug.Name})
		for pos, ingredient := range drug.Ingredients {
			ingredientRows = append(ingredientRows, []any{int64(drug.Code), int32(pos), ingredient})
		}
	}

	result.Drugs, err = tx.CopyFrom(ctx, pgx.Identifier{"drugs"}, []string{"code", "name"}, pgx.CopyFromRows(drugRows))
	if err != nil {
		return result, fmt.Errorf("copy drugs: %w", err)
	}

	result.Ingredients, err = tx.CopyFrom(ctx, pgx.Identifier{"drug_ingredients"},
		[]string{"drug_code", "position", "ingredient"}, pgx.CopyFromRows(ingredientRows))
	if err != nil {
		return result, fmt.Errorf("copy drug ingredients: %w", err)
	}

	// Catalogue ids are pair-derived, so duplicates collapse onto one row
	seen := make(map[[16]byte]struct{}, len(data.Interactions))
	interactionRows := make([][]any, 0, len(data.Interactions))
	for _, rec := range data.Interactions {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		interactionRows = append(interactionRows, []any{
			pgtype.UUID{Bytes: rec.ID, Valid: true},
			rec.IngredientA, rec.IngredientB, rec.Level, rec.Description, rec.Management,
		})
	}

	result.Interactions, err = tx.CopyFrom(ctx, pgx.Identifier{"interactions"},
		[]string{"id", "ingredient_a", "ingredient_b", "level", "description", "management"},
		pgx.CopyFromRows(interactionRows))
	if err != nil {
		return result, fmt.Errorf("copy interactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}
