// Package interactions resolves drug-drug interactions from drug codes or ingredient
// names against a read-only reference store.
package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/metrics"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

// Compile-time check to ensure Service implements InteractionResolver
var _ interfaces.InteractionResolver = (*Service)(nil)

// Options bounds the entry points. Zero values fall back to the defaults.
type Options struct {
	MaxDrugCodes       int
	MaxIngredientNames int
	Concurrency        int
}

// Service exposes the two resolution entry points.
type Service struct {
	resolver           *IngredientResolver
	finder             *Finder
	maxDrugCodes       int
	maxIngredientNames int
}

// NewService creates a resolution service over store
func NewService(store interfaces.ReferenceStore, opts Options) *Service {
	if opts.MaxDrugCodes <= 0 {
		opts.MaxDrugCodes = DefaultMaxDrugCodes
	}
	if opts.MaxIngredientNames <= 0 {
		opts.MaxIngredientNames = DefaultMaxIngredientNames
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Service{
		resolver:           NewIngredientResolver(store),
		finder:             NewFinder(store, opts.Concurrency),
		maxDrugCodes:       opts.MaxDrugCodes,
		maxIngredientNames: opts.MaxIngredientNames,
	}
}

// ResolveByDrugCodes resolves a comma-separated list of drug codes into per-drug
// ingredient flags and the matched interactions.
func (s *Service) ResolveByDrugCodes(ctx context.Context, raw string) (result *interfaces.DrugResult, err error) {
	start := time.Now()
	defer func() { observe("drugs", start, err) }()

	codes, err := ParseDrugCodes(raw, s.maxDrugCodes)
	if err != nil {
		return nil, err
	}

	perDrug, all, err := s.resolver.ResolveIngredients(ctx, codes)
	if err != nil {
		return nil, err
	}

	names, err := s.resolver.DrugNames(ctx, codes)
	if err != nil {
		return nil, err
	}

	records, err := s.finder.FindInteractions(ctx, all)
	if err != nil {
		return nil, err
	}

	logging.Debug("Resolved interactions by drug codes",
		"codes", len(codes),
		"ingredients", len(all),
		"interactions", len(records),
	)

	return BuildDrugOrientedResult(perDrug, names, records), nil
}

// ResolveByIngredientNames resolves a comma-separated list of ingredient names into the
// matched interactions.
func (s *Service) ResolveByIngredientNames(ctx context.Context, raw string) (result *interfaces.IngredientResult, err error) {
	start := time.Now()
	defer func() { observe("ingredients", start, err) }()

	names, err := ParseIngredientNames(raw, s.maxIngredientNames)
	if err != nil {
		return nil, err
	}

	records, err := s.finder.FindInteractions(ctx, names)
	if err != nil {
		return nil, err
	}

	logging.Debug("Resolved interactions by ingredient names",
		"ingredients", len(names),
		"interactions", len(records),
	)

	return &interfaces.IngredientResult{Interactions: records}, nil
}

// LookupDrug returns the reference entry of a single drug with its normalized ingredients.
func (s *Service) LookupDrug(ctx context.Context, code int) (*entities.Drug, error) {
	codes := []int{code}

	names, err := s.resolver.DrugNames(ctx, codes)
	if err != nil {
		return nil, err
	}
	if names[code] == nil {
		return nil, ErrDrugNotFound
	}

	perDrug, _, err := s.resolver.ResolveIngredients(ctx, codes)
	if err != nil {
		return nil, err
	}

	return &entities.Drug{
		Code:        code,
		Name:        *names[code],
		Ingredients: perDrug[code],
	}, nil
}

func observe(entry string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput):
		outcome = "invalid_input"
	case errors.Is(err, ErrCancelled):
		outcome = "cancelled"
	case errors.Is(err, ErrDataAccess):
		outcome = "data_access_failure"
		logging.Error("Interaction resolution failed", "entry", entry, "error", err)
	default:
		outcome = "error"
	}

	metrics.ResolutionsTotal.WithLabelValues(entry, outcome).Inc()
	metrics.ResolutionDuration.WithLabelValues(entry).Observe(time.Since(start).Seconds())
}
