package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS drugs (
		code BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drug_ingredients (
		drug_code  BIGINT NOT NULL REFERENCES drugs (code) ON DELETE CASCADE,
		position   INT    NOT NULL,
		ingredient TEXT,
		PRIMARY KEY (drug_code, position)
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id           UUID PRIMARY KEY,
		ingredient_a TEXT NOT NULL,
		ingredient_b TEXT NOT NULL,
		level        TEXT NOT NULL,
		description  TEXT,
		management   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS interactions_a_idx ON interactions (lower(ingredient_a))`,
	`CREATE INDEX IF NOT EXISTS interactions_b_idx ON interactions (lower(ingredient_b))`,
}

// EnsureSchema creates the reference tables and lookup indexes when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
