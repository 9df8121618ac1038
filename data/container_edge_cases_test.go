package data

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
)

func TestDataContainer_GetServerStartTime(t *testing.T) {
	container := NewDataContainer()

	if !container.GetServerStartTime().IsZero() {
		t.Error("Server start time should be zero before it is set")
	}

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	container.SetServerStartTime(start)

	if !container.GetServerStartTime().Equal(start) {
		t.Errorf("Expected %v, got %v", start, container.GetServerStartTime())
	}
}

func TestDataContainer_UpdateDataWithNil(t *testing.T) {
	container := NewDataContainer()
	container.UpdateData(testReference(), nil)

	container.UpdateData(nil, nil)

	if _, ok := container.GetDrug(100); ok {
		t.Error("A nil load should leave an empty snapshot")
	}

	recs, err := container.FindInteractionsByIngredient(context.Background(), "ibuprofen")
	if err != nil || len(recs) != 0 {
		t.Errorf("Expected no records after a nil load, got %d (%v)", len(recs), err)
	}
}

func TestDataContainer_UpdateDataWithEmptySlices(t *testing.T) {
	container := NewDataContainer()
	container.UpdateData(&entities.ReferenceData{
		Drugs:        []entities.Drug{},
		Interactions: []entities.Interaction{},
	}, nil)

	status, err := container.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Drugs != 0 || status.Interactions != 0 {
		t.Errorf("Expected empty status, got %+v", status)
	}
}

func TestDataContainer_SelfInteractionIndexedOnce(t *testing.T) {
	container := NewDataContainer()
	container.UpdateData(&entities.ReferenceData{
		Interactions: []entities.Interaction{
			{IngredientA: "lithium", IngredientB: "Lithium", Level: "minor"},
		},
	}, nil)

	recs, _ := container.FindInteractionsByIngredient(context.Background(), "lithium")
	if len(recs) != 1 {
		t.Errorf("A self-interaction should be returned once, got %d", len(recs))
	}

	pair, _ := container.FindInteractionsByPair(context.Background(), "lithium", "lithium")
	if len(pair) != 1 {
		t.Errorf("Expected the self pair to match, got %d", len(pair))
	}
}

func TestDataContainer_SnapshotIsolation(t *testing.T) {
	container := NewDataContainer()

	ref := testReference()
	container.UpdateData(ref, nil)

	// Mutating the caller's slice after the swap must not leak into the snapshot
	ref.Interactions[0].Level = "changed"

	recs, _ := container.FindInteractionsByPair(context.Background(), "ibuprofen", "warfarin")
	for _, rec := range recs {
		if rec.Level == "changed" {
			t.Error("Snapshot should hold its own copy of the interaction records")
		}
	}
}

func TestDataContainer_ConcurrentReadsDuringUpdate(t *testing.T) {
	container := NewDataContainer()
	container.UpdateData(testReference(), nil)

	var wg sync.WaitGroup
	var inconsistent atomic.Int32
	stop := make(chan struct{})

	// Readers assert that a pair lookup always sees a complete snapshot: either the
	// original two ibuprofen/warfarin records or the replacement's one.
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				recs, err := container.FindInteractionsByPair(context.Background(), "ibuprofen", "warfarin")
				if err != nil || (len(recs) != 1 && len(recs) != 2) {
					inconsistent.Add(1)
				}
				_ = container.GetLastUpdated()
				_ = container.IsUpdating()
			}
		}()
	}

	replacement := &entities.ReferenceData{
		Drugs: []entities.Drug{{Code: 100, Name: "Advil", Ingredients: []string{"ibuprofen"}}},
		Interactions: []entities.Interaction{
			{IngredientA: "ibuprofen", IngredientB: "warfarin", Level: "major"},
		},
	}

	for i := 0; i < 50; i++ {
		if !container.BeginUpdate() {
			t.Fatal("BeginUpdate should succeed for a single writer")
		}
		if i%2 == 0 {
			container.UpdateData(replacement, nil)
		} else {
			container.UpdateData(testReference(), nil)
		}
		container.EndUpdate()
	}

	close(stop)
	wg.Wait()

	if n := inconsistent.Load(); n > 0 {
		t.Errorf("Readers observed %d partial snapshots", n)
	}
}

func TestDataContainer_ConcurrentBeginUpdate(t *testing.T) {
	container := NewDataContainer()

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if container.BeginUpdate() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("Exactly one BeginUpdate should win, got %d", winners.Load())
	}
}

func TestDataContainer_LargeLoad(t *testing.T) {
	const n = 5000

	ref := &entities.ReferenceData{}
	for i := 0; i < n; i++ {
		ref.Drugs = append(ref.Drugs, entities.Drug{
			Code:        i + 1,
			Name:        fmt.Sprintf("Drug %d", i+1),
			Ingredients: []string{fmt.Sprintf("substance-%d", i)},
		})
		ref.Interactions = append(ref.Interactions, entities.Interaction{
			IngredientA: fmt.Sprintf("substance-%d", i),
			IngredientB: fmt.Sprintf("substance-%d", (i+1)%n),
			Level:       "minor",
		})
	}

	container := NewDataContainer()
	container.UpdateData(ref, nil)

	recs, _ := container.FindInteractionsByIngredient(context.Background(), "substance-42")
	if len(recs) != 2 {
		t.Errorf("Each substance sits in a ring of two interactions, got %d", len(recs))
	}
}
