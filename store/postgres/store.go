package postgres

import (
	"context"
	"fmt"

	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time checks
var (
	_ interfaces.ReferenceStore = (*Store)(nil)
	_ interfaces.StatusProvider = (*Store)(nil)
)

// BackendName identifies this store in health output
const BackendName = "postgres"

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store serves reference lookups from PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const interactionCols = `id, ingredient_a, ingredient_b, level, description, management`

func toInt64s(codes []int) []int64 {
	out := make([]int64, len(codes))
	for i, c := range codes {
		out[i] = int64(c)
	}
	return out
}

// GetIngredientsForDrugCodes returns one row per stored (code, ingredient) link
func (s *Store) GetIngredientsForDrugCodes(ctx context.Context, codes []int) ([]entities.DrugIngredient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT drug_code, ingredient FROM drug_ingredients
		WHERE drug_code = ANY($1)
		ORDER BY drug_code, position`, toInt64s(codes))
	if err != nil {
		return nil, fmt.Errorf("query drug ingredients: %w", err)
	}
	defer rows.Close()

	var out []entities.DrugIngredient
	for rows.Next() {
		var code int64
		var ingredient *string
		if err := rows.Scan(&code, &ingredient); err != nil {
			return nil, fmt.Errorf("scan drug ingredient: %w", err)
		}
		out = append(out, entities.DrugIngredient{DrugCode: int(code), Ingredient: ingredient})
	}
	return out, rows.Err()
}

// GetDrugNames returns the display name of every known code
func (s *Store) GetDrugNames(ctx context.Context, codes []int) ([]entities.DrugName, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, name FROM drugs WHERE code = ANY($1)`, toInt64s(codes))
	if err != nil {
		return nil, fmt.Errorf("query drug names: %w", err)
	}
	defer rows.Close()

	var out []entities.DrugName
	for rows.Next() {
		var code int64
		var name *string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, fmt.Errorf("scan drug name: %w", err)
		}
		out = append(out, entities.DrugName{DrugCode: int(code), Name: name})
	}
	return out, rows.Err()
}

// FindInteractionsByIngredient returns every record with name on either side
func (s *Store) FindInteractionsByIngredient(ctx context.Context, name string) ([]entities.Interaction, error) {
	return s.queryInteractions(ctx, `
		SELECT `+interactionCols+` FROM interactions
		WHERE lower(ingredient_a) = $1 OR lower(ingredient_b) = $1
		ORDER BY id`, normalize(name))
}

// FindInteractionsByPair returns the records whose sides are exactly {a, b}
func (s *Store) FindInteractionsByPair(ctx context.Context, a, b string) ([]entities.Interaction, error) {
	return s.queryInteractions(ctx, `
		SELECT `+interactionCols+` FROM interactions
		WHERE (lower(ingredient_a) = $1 AND lower(ingredient_b) = $2)
		   OR (lower(ingredient_a) = $2 AND lower(ingredient_b) = $1)
		ORDER BY id`, normalize(a), normalize(b))
}

func (s *Store) queryInteractions(ctx context.Context, sql string, args ...any) ([]entities.Interaction, error) {
	return scanInteractions(ctx, s.pool, sql, args...)
}

func scanInteractions(ctx context.Context, q queryable, sql string, args ...any) ([]entities.Interaction, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []entities.Interaction{}
	for rows.Next() {
		var rec entities.Interaction
		if err := rows.Scan(&rec.ID, &rec.IngredientA, &rec.IngredientB, &rec.Level, &rec.Description, &rec.Management); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Status counts the stored rows; a failing query reports the database as unavailable
func (s *Store) Status(ctx context.Context) (interfaces.StoreStatus, error) {
	st := interfaces.StoreStatus{Backend: BackendName}

	err := s.pool.QueryRow(ctx, `SELECT (SELECT COUNT(*) FROM drugs), (SELECT COUNT(*) FROM interactions)`).
		Scan(&st.Drugs, &st.Interactions)
	if err != nil {
		return st, fmt.Errorf("reference status: %w", err)
	}
	return st, nil
}

// normalize matches the lower() the queries apply to stored names, which Import writes
// in canonical form.
func normalize(name string) string {
	return interactions.NormalizeIngredient(name)
}
