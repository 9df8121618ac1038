package referenceparser

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"golang.org/x/sync/errgroup"
)

// Compile-time check to ensure ReferenceParser implements Parser interface
var _ interfaces.Parser = (*ReferenceParser)(nil)

// Sources names the three reference inputs. Each is a file path or an http(s) URL.
type Sources struct {
	Drugs        string
	Compositions string
	Interactions string
}

// ReferenceParser implements the Parser interface
type ReferenceParser struct {
	sources Sources
	client  *http.Client
}

// NewReferenceParser creates a parser reading from sources
func NewReferenceParser(sources Sources) *ReferenceParser {
	return &ReferenceParser{
		sources: sources,
		client:  &http.Client{Timeout: downloadTimeout},
	}
}

// ParseAll fetches and parses the three sources concurrently, then attaches each drug's
// ingredients. Any failing source fails the whole run so a partial load never replaces
// good data.
func (p *ReferenceParser) ParseAll(ctx context.Context) (*entities.ReferenceData, error) {
	start := time.Now()

	var (
		names        map[int]string
		order        []int
		compositions []entities.Composition
		interactions []entities.Interaction
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := p.fetch(gctx, p.sources.Drugs)
		if err != nil {
			return err
		}
		names, order, err = parseDrugs(r)
		return err
	})

	g.Go(func() error {
		r, err := p.fetch(gctx, p.sources.Compositions)
		if err != nil {
			return err
		}
		compositions, err = parseCompositions(r)
		return err
	})

	g.Go(func() error {
		r, err := p.fetch(gctx, p.sources.Interactions)
		if err != nil {
			return err
		}
		interactions, err = parseCatalogue(r)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}

	data := assemble(names, order, compositions, interactions)

	logging.Info("Reference data parsed",
		"duration", time.Since(start).String(),
		"drugs", len(data.Drugs),
		"interactions", len(data.Interactions),
		"orphan_compositions", len(data.OrphanCompositionCodes))

	return data, nil
}

// assemble joins compositions onto drugs. Drugs keep file order and ingredients keep
// composition order, with duplicates and blank names removed.
func assemble(names map[int]string, order []int, compositions []entities.Composition, interactions []entities.Interaction) *entities.ReferenceData {
	ingredients := make(map[int][]string, len(names))
	seen := make(map[int]map[string]struct{}, len(names))
	orphans := make(map[int]struct{})

	for _, comp := range compositions {
		if _, ok := names[comp.DrugCode]; !ok {
			orphans[comp.DrugCode] = struct{}{}
			continue
		}
		if comp.DenominationSubstance == "" {
			continue
		}
		if seen[comp.DrugCode] == nil {
			seen[comp.DrugCode] = make(map[string]struct{})
		}
		if _, dup := seen[comp.DrugCode][comp.DenominationSubstance]; dup {
			continue
		}
		seen[comp.DrugCode][comp.DenominationSubstance] = struct{}{}
		ingredients[comp.DrugCode] = append(ingredients[comp.DrugCode], comp.DenominationSubstance)
	}

	drugs := make([]entities.Drug, 0, len(order))
	for _, code := range order {
		list := ingredients[code]
		if list == nil {
			list = []string{}
		}
		drugs = append(drugs, entities.Drug{Code: code, Name: names[code], Ingredients: list})
	}

	orphanCodes := make([]int, 0, len(orphans))
	for code := range orphans {
		orphanCodes = append(orphanCodes, code)
	}
	sort.Ints(orphanCodes)

	if interactions == nil {
		interactions = []entities.Interaction{}
	}

	return &entities.ReferenceData{
		Drugs:                  drugs,
		Interactions:           interactions,
		OrphanCompositionCodes: orphanCodes,
	}
}
