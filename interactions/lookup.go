package interactions

import (
	"context"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/metrics"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pair lookups run at once for N >= 3.
const DefaultConcurrency = 4

// Finder runs size-dispatched interaction lookups against an InteractionSource.
type Finder struct {
	store       interfaces.InteractionSource
	concurrency int
}

// NewFinder creates a Finder. A concurrency below 1 runs pair lookups one at a time.
func NewFinder(store interfaces.InteractionSource, concurrency int) *Finder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Finder{store: store, concurrency: concurrency}
}

// FindInteractions returns the deduplicated interaction records for an ingredient set.
//
// With one ingredient every record involving it is returned, whatever the counterpart.
// With two or more only records whose both sides belong to the set are returned: each
// unordered pair is probed exactly once.
func (f *Finder) FindInteractions(ctx context.Context, ingredients []string) ([]entities.Interaction, error) {
	set := distinct(ingredients)

	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	switch len(set) {
	case 0:
		return []entities.Interaction{}, nil

	case 1:
		metrics.PairLookupsTotal.WithLabelValues("ingredient").Inc()
		records, err := f.store.FindInteractionsByIngredient(ctx, set[0])
		if err != nil {
			return nil, classify(ctx, "find interactions by ingredient", err)
		}

		acc := newAccumulator()
		for _, rec := range records {
			if involves(rec, set[0]) {
				acc.add(rec)
			}
		}
		return acc.records, nil

	case 2:
		pair := Pair{A: set[0], B: set[1]}
		records, err := f.lookupPair(ctx, pair)
		if err != nil {
			return nil, err
		}

		acc := newAccumulator()
		acc.addAll(records)
		return acc.records, nil

	default:
		return f.findAcrossPairs(ctx, Pairs(set))
	}
}

// findAcrossPairs probes every pair with bounded concurrency. Results are merged in pair
// order once all lookups finished, so the output does not depend on scheduling.
func (f *Finder) findAcrossPairs(ctx context.Context, pairs []Pair) ([]entities.Interaction, error) {
	results := make([][]entities.Interaction, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return cancelled(err)
			}
			records, err := f.lookupPair(gctx, pair)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// The caller's own cancellation takes precedence over the errgroup's.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		return nil, err
	}

	acc := newAccumulator()
	for _, records := range results {
		acc.addAll(records)
	}
	return acc.records, nil
}

func (f *Finder) lookupPair(ctx context.Context, pair Pair) ([]entities.Interaction, error) {
	metrics.PairLookupsTotal.WithLabelValues("pair").Inc()

	records, err := f.store.FindInteractionsByPair(ctx, pair.A, pair.B)
	if err != nil {
		return nil, classify(ctx, "find interactions by pair", err)
	}

	matched := records[:0:0]
	for _, rec := range records {
		if pair.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// accumulator keeps records in first-seen order, dropping repeated identities.
type accumulator struct {
	seen    map[string]struct{}
	records []entities.Interaction
}

func newAccumulator() *accumulator {
	return &accumulator{
		seen:    make(map[string]struct{}),
		records: []entities.Interaction{},
	}
}

func (a *accumulator) add(rec entities.Interaction) {
	key := recordKey(rec)
	if _, ok := a.seen[key]; ok {
		return
	}
	a.seen[key] = struct{}{}
	a.records = append(a.records, rec)
}

func (a *accumulator) addAll(records []entities.Interaction) {
	for _, rec := range records {
		a.add(rec)
	}
}

// distinct normalizes names and drops blanks and repeats, keeping first-seen order.
func distinct(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		n := NormalizeIngredient(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
