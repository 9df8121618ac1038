package interactions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagsOf(t *testing.T, result *interfaces.DrugResult, code int) map[string]bool {
	t.Helper()
	for _, drug := range result.Drugs {
		if drug.DrugCode == code {
			flags := make(map[string]bool, len(drug.Ingredients))
			for _, f := range drug.Ingredients {
				flags[f.Ingredient] = f.HasInteraction
			}
			return flags
		}
	}
	t.Fatalf("drug %d not in result", code)
	return nil
}

func TestResolveByDrugCodes_TwoDrugScenario(t *testing.T) {
	store := newFakeStore().
		withDrug(100, "Advil", "Ibuprofen").
		withDrug(200, "Coumadin", "warfarin").
		withInteraction("ibuprofen", "warfarin", "moderate")
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "100, 200")

	require.NoError(t, err)
	require.Len(t, result.Interactions, 1)
	assert.Equal(t, "moderate", result.Interactions[0].Level)
	require.Len(t, result.Drugs, 2)
	assert.Equal(t, map[string]bool{"ibuprofen": true}, flagsOf(t, result, 100))
	assert.Equal(t, map[string]bool{"warfarin": true}, flagsOf(t, result, 200))
	require.NotNil(t, result.Drugs[0].DrugName)
	assert.Equal(t, "Advil", *result.Drugs[0].DrugName)
}

func TestResolveByDrugCodes_FlagsOnlyImplicatedIngredients(t *testing.T) {
	store := newFakeStore().
		withDrug(1, "Combo", "a", "b", "c").
		withDrug(2, "Other", "x").
		withInteraction("a", "x", "major")
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1,2")

	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": false}, flagsOf(t, result, 1))
	assert.Equal(t, map[string]bool{"x": true}, flagsOf(t, result, 2))
}

func TestResolveByDrugCodes_UnknownDrugHasNilName(t *testing.T) {
	store := newFakeStore().withDrug(1, "Known", "a")
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1,999")

	require.NoError(t, err)
	require.Len(t, result.Drugs, 2)
	assert.Equal(t, 999, result.Drugs[1].DrugCode)
	assert.Nil(t, result.Drugs[1].DrugName)
	assert.Empty(t, result.Drugs[1].Ingredients)
	assert.NotNil(t, result.Interactions)
	assert.Empty(t, result.Interactions)
}

func TestResolveByDrugCodes_SkipsBlankAndDuplicateIngredients(t *testing.T) {
	store := newFakeStore().withDrug(1, "Messy", "Aspirin", " aspirin ", "", "  ")
	store.ingredients[1] = append(store.ingredients[1], nil)
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"aspirin": false}, flagsOf(t, result, 1))
	assert.Equal(t, []string{"aspirin"}, store.ingredientCalls)
}

func TestResolveByDrugCodes_SharedIngredientAcrossDrugs(t *testing.T) {
	store := newFakeStore().
		withDrug(1, "One", "aspirin", "caffeine").
		withDrug(2, "Two", "aspirin").
		withInteraction("aspirin", "caffeine", "minor")
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1,2")

	require.NoError(t, err)
	assert.Len(t, store.pairCalls, 1, "global set {aspirin, caffeine} is a single pair")
	assert.Equal(t, map[string]bool{"aspirin": true, "caffeine": true}, flagsOf(t, result, 1))
	assert.Equal(t, map[string]bool{"aspirin": true}, flagsOf(t, result, 2))
}

func TestResolveByDrugCodes_InvalidInput(t *testing.T) {
	codes := make([]string, 21)
	for i := range codes {
		codes[i] = strconv.Itoa(i + 1)
	}

	tests := []struct {
		name  string
		input string
		token string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"too many codes", strings.Join(codes, ","), ""},
		{"non numeric", "1,abc,3", "abc"},
		{"decimal", "1.5", "1.5"},
		{"blank token", "1,,2", ""},
		{"negative code", "1,-3", "-3"},
		{"zero code", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, Options{})

			result, err := svc.ResolveByDrugCodes(context.Background(), tt.input)

			assert.Nil(t, result)
			require.ErrorIs(t, err, ErrInvalidInput)
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.token, inputErr.Token)
			assert.Zero(t, store.codeCalls, "no collaborator call on invalid input")
		})
	}
}

func TestResolveByDrugCodes_TwentyCodesAccepted(t *testing.T) {
	codes := make([]string, 20)
	for i := range codes {
		codes[i] = strconv.Itoa(i + 1)
	}
	svc := NewService(newFakeStore(), Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), strings.Join(codes, ","))

	require.NoError(t, err)
	assert.Len(t, result.Drugs, 20)
}

func TestResolveByDrugCodes_DataAccessFailure(t *testing.T) {
	storeErr := errors.New("timeout talking to db")
	store := newFakeStore()
	store.ingredErr = storeErr
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDataAccess)
	assert.ErrorIs(t, err, storeErr)
}

func TestResolveByDrugCodes_NamesFailureAbortsWholeCall(t *testing.T) {
	store := newFakeStore().withDrug(1, "One", "a")
	store.namesErr = errors.New("boom")
	svc := NewService(store, Options{})

	result, err := svc.ResolveByDrugCodes(context.Background(), "1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDataAccess)
}

func TestResolveByIngredientNames(t *testing.T) {
	store := newFakeStore().
		withInteraction("aspirin", "warfarin", "major").
		withInteraction("aspirin", "ibuprofen", "moderate")
	svc := NewService(store, Options{})

	t.Run("empty list is an empty result", func(t *testing.T) {
		result, err := svc.ResolveByIngredientNames(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, result.Interactions)
		assert.Empty(t, result.Interactions)
	})

	t.Run("duplicate after trim is a single ingredient", func(t *testing.T) {
		store.ingredientCalls = nil
		store.pairCalls = nil

		result, err := svc.ResolveByIngredientNames(context.Background(), "aspirin, aspirin")
		require.NoError(t, err)
		assert.Len(t, result.Interactions, 2)
		assert.Equal(t, []string{"aspirin"}, store.ingredientCalls)
		assert.Empty(t, store.pairCalls)
	})

	t.Run("pair is contained", func(t *testing.T) {
		result, err := svc.ResolveByIngredientNames(context.Background(), "Warfarin,ASPIRIN")
		require.NoError(t, err)
		require.Len(t, result.Interactions, 1)
		assert.Equal(t, "major", result.Interactions[0].Level)
	})
}

func TestResolveByIngredientNames_InvalidInput(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = "ingredient" + strconv.Itoa(i)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"twelve names", strings.Join(names, ",")},
		{"blank middle token", "a,,b"},
		{"blank trailing token", "a, "},
		{"whitespace token", "a,   ,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store, Options{})

			result, err := svc.ResolveByIngredientNames(context.Background(), tt.input)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, store.ingredientCalls)
			assert.Empty(t, store.pairCalls)
		})
	}
}

func TestResolveByIngredientNames_ElevenAccepted(t *testing.T) {
	names := make([]string, 11)
	for i := range names {
		names[i] = "ingredient" + strconv.Itoa(i)
	}
	store := newFakeStore()
	svc := NewService(store, Options{Concurrency: 8})

	_, err := svc.ResolveByIngredientNames(context.Background(), strings.Join(names, ","))

	require.NoError(t, err)
	assert.Len(t, store.pairCalls, 55)
}

func TestResolveByIngredientNames_CustomBounds(t *testing.T) {
	svc := NewService(newFakeStore(), Options{MaxIngredientNames: 2, MaxDrugCodes: 1})

	_, err := svc.ResolveByIngredientNames(context.Background(), "a,b,c")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ResolveByDrugCodes(context.Background(), "1,2")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveByDrugCodes_Cancelled(t *testing.T) {
	store := newFakeStore().withDrug(1, "One", "a")
	svc := NewService(store, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ResolveByDrugCodes(ctx, "1")

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, store.codeCalls)
}

func TestLookupDrug(t *testing.T) {
	store := newFakeStore().withDrug(42, "Doliprane", "Paracétamol", "paracétamol")
	svc := NewService(store, Options{})

	drug, err := svc.LookupDrug(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Doliprane", drug.Name)
	assert.Equal(t, []string{"paracétamol"}, drug.Ingredients)

	_, err = svc.LookupDrug(context.Background(), 7)
	assert.ErrorIs(t, err, ErrDrugNotFound)
}

func TestBuildDrugOrientedResult_EmptyInputs(t *testing.T) {
	result := BuildDrugOrientedResult(map[int][]string{}, map[int]*string{}, nil)

	assert.NotNil(t, result.Drugs)
	assert.Empty(t, result.Drugs)
	assert.NotNil(t, result.Interactions)
	assert.Empty(t, result.Interactions)
}

func TestNormalizeIngredient(t *testing.T) {
	nfc := "acide acétylsalicylique"
	nfd := "acide ace\u0301tylsalicylique"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trim and lower", "  Aspirin ", "aspirin"},
		{"inner whitespace collapsed", "Acide  \tAcétylsalicylique", nfc},
		{"decomposed accent composed", nfd, nfc},
		{"blank", " \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIngredient(tt.in))
		})
	}
}

func TestResolveByIngredientNames_CanonicalForms(t *testing.T) {
	store := newFakeStore().withInteraction("acide acétylsalicylique", "warfarine", "major")
	svc := NewService(store, Options{})

	for _, query := range []string{
		"Acide Acétylsalicylique,Warfarine",
		"acide ace\u0301tylsalicylique,warfarine",
		"acide  acétylsalicylique, warfarine",
	} {
		result, err := svc.ResolveByIngredientNames(context.Background(), query)
		require.NoError(t, err)
		assert.Len(t, result.Interactions, 1, "query %q", query)
	}
}
