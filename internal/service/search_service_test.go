package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/pricing"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

type fakeProvider struct {
	name    string
	result  *ProviderResult
	err     error
	calls   int
	lastQry ProviderQuery
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, q ProviderQuery) (*ProviderResult, error) {
	f.calls++
	f.lastQry = q
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) ListingsInGroup(context.Context, string) ([]models.Listing, error) {
	return nil, nil
}

func (f *fakeProvider) GetListing(context.Context, string) (*models.Listing, error) {
	return nil, nil
}

type fakeResultCache struct {
	stored map[string]*models.SearchResult
	sets   int
	gets   int
	getErr error
	setErr error
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{stored: make(map[string]*models.SearchResult)}
}

func (f *fakeResultCache) GetResult(_ context.Context, key string) (*models.SearchResult, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stored[key], nil
}

func (f *fakeResultCache) SetResult(_ context.Context, key string, result *models.SearchResult) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.stored[key] = result
	return nil
}

func searchTestCalc() *pricing.Calculator {
	return pricing.NewCalculator(pricing.NewFlatRateEstimator())
}

func newTestSearchService(primary, fallback SearchProvider, c ResultCache, deals *SmartDealService) *SearchService {
	return NewSearchService(primary, fallback, c, searchTestCalc(), deals, metrics.New(), time.Second, 10)
}

func localRequest() *models.LocalSearchRequest {
	return &models.LocalSearchRequest{
		Query:    "headphones",
		Page:     1,
		PageSize: 20,
		Sort:     models.SortRelevance,
		Country:  "IL",
	}
}

func globalRequest() *models.GlobalSearchRequest {
	return &models.GlobalSearchRequest{
		Query:       "headphones",
		Page:        1,
		PageSize:    20,
		Sort:        models.SortRelevance,
		UserCountry: "IL",
	}
}

func TestSearchLocalHappyPath(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{*localListing("il-1", 549.90)},
		EstimatedTotal: 41,
	}}
	cache := newFakeResultCache()
	svc := newTestSearchService(primary, nil, cache, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(result.Results))
	}
	if result.Pagination.TotalResults != 41 || result.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v, want 41 results over 3 pages", result.Pagination)
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
	if primary.lastQry.Market != models.MarketLocal || primary.lastQry.Country != "IL" {
		t.Errorf("provider query = %+v", primary.lastQry)
	}
}

func TestSearchLocalCacheHitSkipsProvider(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{}}
	cache := newFakeResultCache()
	svc := newTestSearchService(primary, nil, cache, nil)

	if _, err := svc.SearchLocal(context.Background(), localRequest()); err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if _, err := svc.SearchLocal(context.Background(), localRequest()); err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}

	if primary.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second request should hit cache)", primary.calls)
	}
	if cache.gets != 2 {
		t.Errorf("cache reads = %d, want 2", cache.gets)
	}
}

func TestSearchLocalFallbackNotCached(t *testing.T) {
	primary := &fakeProvider{name: "index", err: searchindex.ErrConnection{Err: errors.New("index down")}}
	fallback := &fakeProvider{name: "store", result: &ProviderResult{
		Listings:       []models.Listing{*localListing("il-1", 549.90)},
		EstimatedTotal: 1,
	}}
	cache := newFakeResultCache()
	svc := newTestSearchService(primary, fallback, cache, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("fallback results lost: got %d, want 1", len(result.Results))
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
	if cache.sets != 0 {
		t.Errorf("fallback result written to cache %d times, want 0", cache.sets)
	}
}

func TestSearchLocalTotalFailureReturnsEmpty(t *testing.T) {
	primary := &fakeProvider{name: "index", err: searchindex.ErrConnection{Err: errors.New("index down")}}
	fallback := &fakeProvider{name: "store", err: errors.New("db down")}
	cache := newFakeResultCache()
	svc := newTestSearchService(primary, fallback, cache, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("total provider failure should not error the caller, got %v", err)
	}
	if result.Results == nil || len(result.Results) != 0 {
		t.Errorf("results = %v, want empty non-nil slice", result.Results)
	}
	if result.Pagination.TotalResults != 0 {
		t.Errorf("total = %d, want 0", result.Pagination.TotalResults)
	}
	if cache.sets != 0 {
		t.Errorf("failure result cached %d times, want 0", cache.sets)
	}
}

func TestSearchLocalNonRecoverableErrorSkipsFallback(t *testing.T) {
	// A programmer error from the primary is not something the raw store
	// can paper over.
	primary := &fakeProvider{name: "index", err: errors.New("nil request")}
	fallback := &fakeProvider{name: "store", result: &ProviderResult{
		Listings:       []models.Listing{*localListing("il-1", 549.90)},
		EstimatedTotal: 1,
	}}
	svc := newTestSearchService(primary, fallback, nil, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
	if len(result.Results) != 0 {
		t.Errorf("got %d results, want 0", len(result.Results))
	}
}

func TestSearchLocalNoFallbackConfigured(t *testing.T) {
	primary := &fakeProvider{name: "mock", err: errors.New("boom")}
	svc := newTestSearchService(primary, nil, nil, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("got %d results, want 0", len(result.Results))
	}
}

func TestSearchLocalCacheErrorTreatedAsMiss(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{*localListing("il-1", 549.90)},
		EstimatedTotal: 1,
	}}
	cache := newFakeResultCache()
	cache.getErr = errors.New("redis down")
	svc := newTestSearchService(primary, nil, cache, nil)

	result, err := svc.SearchLocal(context.Background(), localRequest())
	if err != nil {
		t.Fatalf("cache failure should not fail the search, got %v", err)
	}
	if len(result.Results) != 1 {
		t.Errorf("got %d results, want 1", len(result.Results))
	}
}

func TestSearchLocalSmartDeal(t *testing.T) {
	local := *localListing("il-1", 1000)
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{local},
		EstimatedTotal: 1,
	}}
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}
	deals := newDealService(lookup, t)
	svc := newTestSearchService(primary, nil, nil, deals)

	req := localRequest()
	req.CheckInternational = true
	result, err := svc.SearchLocal(context.Background(), req)
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if result.SmartDeal == nil || !result.SmartDeal.Available {
		t.Fatalf("smart deal missing from result: %+v", result.SmartDeal)
	}

	// Without the flag the comparison must not run.
	req2 := localRequest()
	result, err = svc.SearchLocal(context.Background(), req2)
	if err != nil {
		t.Fatalf("SearchLocal() error = %v", err)
	}
	if result.SmartDeal != nil {
		t.Error("smart deal attached without check_international")
	}
}

func TestSearchGlobalAttachesLandedCosts(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{globalListing("gl-1", 100, models.AvailabilityInStock)},
		EstimatedTotal: 1,
	}}
	svc := newTestSearchService(primary, nil, nil, nil)

	req := globalRequest()
	req.IncludeShipping = true
	req.IncludeAllFees = true
	result, err := svc.SearchGlobal(context.Background(), req)
	if err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}

	intl := result.Results[0].Pricing.International
	if intl == nil {
		t.Fatal("landed cost not attached")
	}
	if intl.TotalLandedCost != 127 {
		t.Errorf("landed total = %v, want 127", intl.TotalLandedCost)
	}
	if intl.Currency != "USD" {
		t.Errorf("landed currency = %q, want USD", intl.Currency)
	}
}

func TestSearchGlobalShippingOnly(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{globalListing("gl-1", 100, models.AvailabilityInStock)},
		EstimatedTotal: 1,
	}}
	svc := newTestSearchService(primary, nil, nil, nil)

	req := globalRequest()
	req.IncludeShipping = true
	result, err := svc.SearchGlobal(context.Background(), req)
	if err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}

	intl := result.Results[0].Pricing.International
	if intl == nil {
		t.Fatal("landed cost not attached")
	}
	if intl.TotalLandedCost != 110 {
		t.Errorf("landed total = %v, want 110 (shipping only)", intl.TotalLandedCost)
	}
}

func TestSearchGlobalNoCostFlagsLeavesListingsAlone(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{globalListing("gl-1", 100, models.AvailabilityInStock)},
		EstimatedTotal: 1,
	}}
	svc := newTestSearchService(primary, nil, nil, nil)

	result, err := svc.SearchGlobal(context.Background(), globalRequest())
	if err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}
	if result.Results[0].Pricing.International != nil {
		t.Error("landed cost attached without shipping or fee flags")
	}
}

func TestSearchGlobalReranksPriceSortByLandedTotal(t *testing.T) {
	// Cheap base with an expensive attached breakdown vs pricier base that
	// estimates lower: landed order must win.
	cheapBase := globalListing("gl-cheap-base", 100, models.AvailabilityInStock)
	cheapBase.Pricing.International = &models.InternationalCost{
		TotalLandedCost: 200, Currency: "USD",
	}
	pricierBase := globalListing("gl-pricier-base", 110, models.AvailabilityInStock)

	primary := &fakeProvider{name: "index", result: &ProviderResult{
		Listings:       []models.Listing{cheapBase, pricierBase},
		EstimatedTotal: 2,
	}}
	svc := newTestSearchService(primary, nil, nil, nil)

	req := globalRequest()
	req.Sort = models.SortPriceAsc
	req.IncludeShipping = true
	req.IncludeAllFees = true
	result, err := svc.SearchGlobal(context.Background(), req)
	if err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}

	// pricierBase estimates 110*1.27 = 139.70, below the attached 200.
	if result.Results[0].ID != "gl-pricier-base" {
		t.Errorf("first result = %s, want gl-pricier-base", result.Results[0].ID)
	}
}

func TestSearchGlobalMergesMinSellerRating(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{}}
	svc := newTestSearchService(primary, nil, nil, nil)

	msr := 4.5
	req := globalRequest()
	req.MinSellerRating = &msr
	if _, err := svc.SearchGlobal(context.Background(), req); err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}

	got := primary.lastQry.Filters
	if got == nil || got.MinRating == nil || *got.MinRating != 4.5 {
		t.Errorf("min seller rating not merged into provider filters: %+v", got)
	}
	if req.Filters != nil {
		t.Error("request filters mutated by rating merge")
	}
}

func TestSearchGlobalOffsetFromPage(t *testing.T) {
	primary := &fakeProvider{name: "index", result: &ProviderResult{}}
	svc := newTestSearchService(primary, nil, nil, nil)

	req := globalRequest()
	req.Page = 3
	req.PageSize = 25
	if _, err := svc.SearchGlobal(context.Background(), req); err != nil {
		t.Fatalf("SearchGlobal() error = %v", err)
	}
	if primary.lastQry.Offset != 50 || primary.lastQry.Limit != 25 {
		t.Errorf("offset/limit = %d/%d, want 50/25", primary.lastQry.Offset, primary.lastQry.Limit)
	}
}
