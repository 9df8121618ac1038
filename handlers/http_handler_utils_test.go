package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser/entities"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockResolverBuilder provides fluent interface for building mock resolvers
type MockResolverBuilder struct {
	mock *MockResolver
}

func NewMockResolverBuilder() *MockResolverBuilder {
	return &MockResolverBuilder{
		mock: &MockResolver{
			drugResult:       &interfaces.DrugResult{Drugs: []interfaces.DrugEntry{}, Interactions: []entities.Interaction{}},
			ingredientResult: &interfaces.IngredientResult{Interactions: []entities.Interaction{}},
			drugs:            make(map[int]entities.Drug),
		},
	}
}

func (b *MockResolverBuilder) WithDrugResult(result *interfaces.DrugResult) *MockResolverBuilder {
	b.mock.drugResult = result
	return b
}

func (b *MockResolverBuilder) WithIngredientResult(result *interfaces.IngredientResult) *MockResolverBuilder {
	b.mock.ingredientResult = result
	return b
}

func (b *MockResolverBuilder) WithDrug(drug entities.Drug) *MockResolverBuilder {
	b.mock.drugs[drug.Code] = drug
	return b
}

func (b *MockResolverBuilder) WithError(err error) *MockResolverBuilder {
	b.mock.err = err
	return b
}

// WithBlockUntilDone makes every call wait for its context to end
func (b *MockResolverBuilder) WithBlockUntilDone() *MockResolverBuilder {
	b.mock.block = true
	return b
}

func (b *MockResolverBuilder) Build() *MockResolver {
	return b.mock
}

// MockHealthCheckerBuilder provides fluent interface for building mock health checkers
type MockHealthCheckerBuilder struct {
	mock *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{
		mock: &MockHealthChecker{
			status:     "healthy",
			details:    map[string]any{"backend": "memory", "drugs": 3, "interactions": 2},
			httpStatus: http.StatusOK,
		},
	}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.mock.status = status
	b.mock.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.mock
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{}}
}

func (b *MockDataValidatorBuilder) WithQueryError(err error) *MockDataValidatorBuilder {
	b.mock.queryErr = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// ============================================================================
// MOCKS
// ============================================================================

// MockResolver implements interfaces.InteractionResolver for testing
type MockResolver struct {
	drugResult       *interfaces.DrugResult
	ingredientResult *interfaces.IngredientResult
	drugs            map[int]entities.Drug
	err              error
	block            bool

	lastCodes string
	lastNames string
	lastCtx   context.Context
}

func (m *MockResolver) wait(ctx context.Context) error {
	m.lastCtx = ctx
	if m.block {
		<-ctx.Done()
		return fmt.Errorf("%w: %w", interactions.ErrCancelled, ctx.Err())
	}
	return m.err
}

func (m *MockResolver) ResolveByDrugCodes(ctx context.Context, codes string) (*interfaces.DrugResult, error) {
	m.lastCodes = codes
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.drugResult, nil
}

func (m *MockResolver) ResolveByIngredientNames(ctx context.Context, names string) (*interfaces.IngredientResult, error) {
	m.lastNames = names
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.ingredientResult, nil
}

func (m *MockResolver) LookupDrug(ctx context.Context, code int) (*entities.Drug, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	drug, ok := m.drugs[code]
	if !ok {
		return nil, interactions.ErrDrugNotFound
	}
	return &drug, nil
}

// MockHealthChecker implements interfaces.HealthChecker for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

// MockDataValidator implements interfaces.DataValidator for testing
type MockDataValidator struct {
	queryErr error

	validateQueryCalled bool
	lastQuery           string
}

func (m *MockDataValidator) ValidateDrug(d *entities.Drug) error { return nil }

func (m *MockDataValidator) ValidateInteraction(i *entities.Interaction) error { return nil }

func (m *MockDataValidator) ReportDataQuality(data *entities.ReferenceData) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

func (m *MockDataValidator) ValidateQuery(input string) error {
	m.validateQueryCalled = true
	m.lastQuery = input
	return m.queryErr
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// newTestHandler wires a handler from the given mocks with a short timeout
func newTestHandler(resolver *MockResolver, validator *MockDataValidator) *HTTPHandlerImpl {
	return NewHTTPHandler(resolver, NewMockHealthCheckerBuilder().Build(), validator, time.Second).(*HTTPHandlerImpl)
}

// executeRequest runs handler against path, installing chi URL params when given
func executeRequest(handler http.HandlerFunc, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// decodeError decodes a JSON error body, failing the test on malformed output
func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var body errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", rr.Body.String(), err)
	}
	return body
}

func strPtr(s string) *string { return &s }

// serve routes a GET request for path through handler
func serve(handler http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}
