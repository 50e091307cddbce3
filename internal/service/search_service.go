package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/pricing"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

// ResultCache is the slice of the redis cache the orchestrator uses.
// *cache.SearchCache satisfies it; tests substitute a fake.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*models.SearchResult, error)
	SetResult(ctx context.Context, key string, result *models.SearchResult) error
}

// SearchService orchestrates a search request end to end: cache lookup,
// provider query with fallback, postprocessing, cache write.
type SearchService struct {
	primary       SearchProvider
	fallback      SearchProvider // nil when no raw store is configured
	cache         ResultCache    // nil when redis is not configured
	calc          *pricing.Calculator
	deals         *SmartDealService
	metrics       *metrics.Metrics
	timeout       time.Duration
	dealThreshold float64
}

// NewSearchService wires the orchestrator. fallback and resultCache may be
// nil; the service degrades to a single provider with no cache.
func NewSearchService(
	primary SearchProvider,
	fallback SearchProvider,
	resultCache ResultCache,
	calc *pricing.Calculator,
	deals *SmartDealService,
	m *metrics.Metrics,
	timeout time.Duration,
	dealThreshold float64,
) *SearchService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SearchService{
		primary:       primary,
		fallback:      fallback,
		cache:         resultCache,
		calc:          calc,
		deals:         deals,
		metrics:       m,
		timeout:       timeout,
		dealThreshold: dealThreshold,
	}
}

// SearchLocal serves a same-country search. On a cache hit the stored tree
// is returned as is. Otherwise the primary provider is queried, the fallback
// covers a primary failure, and the result is cached only when the primary
// answered. A total provider failure yields an empty result, not an error.
func (s *SearchService) SearchLocal(ctx context.Context, req *models.LocalSearchRequest) (*models.SearchResult, error) {
	started := time.Now()
	key := cache.LocalSearchKey(req)

	if cached := s.readCache(ctx, key); cached != nil {
		s.metrics.IncSearch("local", "cache_hit")
		cached.TookMs = time.Since(started).Milliseconds()
		return cached, nil
	}

	query := ProviderQuery{
		Text:    req.Query,
		Market:  models.MarketLocal,
		Country: req.Country,
		Filters: req.Filters,
		Sort:    SortOrder(req.Sort),
		Limit:   req.PageSize,
		Offset:  (req.Page - 1) * req.PageSize,
	}

	res, fromPrimary := s.query(ctx, query)
	if res == nil {
		s.metrics.IncSearch("local", "failed")
		return s.emptyResult(req.Query, req.Filters, req.Page, req.PageSize, started), nil
	}

	result := &models.SearchResult{
		Results:    res.Listings,
		Pagination: models.NewPagination(req.Page, req.PageSize, res.EstimatedTotal),
		Query:      req.Query,
		Filters:    req.Filters,
	}

	if req.CheckInternational && len(result.Results) > 0 && s.deals != nil {
		deal, err := s.deals.Detect(ctx, &result.Results[0], req.Country, s.dealThreshold)
		if err != nil {
			log.Warn().Err(err).Str("query", req.Query).Msg("smart deal detection failed")
			deal = &models.SmartDeal{Available: false}
		}
		result.SmartDeal = deal
		if deal.Available {
			s.metrics.IncSmartDeal("search")
		}
	}

	if fromPrimary {
		s.writeCache(ctx, key, result)
		s.metrics.IncSearch("local", "ok")
	} else {
		s.metrics.IncSearch("local", "fallback")
	}
	result.TookMs = time.Since(started).Milliseconds()
	return result, nil
}

// SearchGlobal serves an international search. Landed costs are attached to
// every hit when shipping or fee inclusion is requested, and price sorts are
// re-ranked by the landed total within the returned page.
func (s *SearchService) SearchGlobal(ctx context.Context, req *models.GlobalSearchRequest) (*models.SearchResult, error) {
	started := time.Now()
	key := cache.GlobalSearchKey(req)

	if cached := s.readCache(ctx, key); cached != nil {
		s.metrics.IncSearch("global", "cache_hit")
		cached.TookMs = time.Since(started).Milliseconds()
		return cached, nil
	}

	filters := req.Filters
	if req.MinSellerRating != nil {
		merged := models.SearchFilters{}
		if filters != nil {
			merged = *filters
		}
		if merged.MinRating == nil || *req.MinSellerRating > *merged.MinRating {
			merged.MinRating = req.MinSellerRating
		}
		filters = &merged
	}

	query := ProviderQuery{
		Text:    req.Query,
		Market:  models.MarketGlobal,
		Country: req.UserCountry,
		Filters: filters,
		Sort:    SortOrder(req.Sort),
		Limit:   req.PageSize,
		Offset:  (req.Page - 1) * req.PageSize,
	}

	res, fromPrimary := s.query(ctx, query)
	if res == nil {
		s.metrics.IncSearch("global", "failed")
		return s.emptyResult(req.Query, req.Filters, req.Page, req.PageSize, started), nil
	}

	listings := res.Listings
	if req.IncludeShipping || req.IncludeAllFees {
		for i := range listings {
			intl := s.calc.ComputeLandedCost(&listings[i], req.UserCountry, req.IncludeAllFees)
			listings[i].Pricing.International = &intl
		}
		if req.Sort == models.SortPriceAsc || req.Sort == models.SortPriceDesc {
			RerankByLandedCost(listings, req.Sort == models.SortPriceDesc)
		}
	}

	result := &models.SearchResult{
		Results:    listings,
		Pagination: models.NewPagination(req.Page, req.PageSize, res.EstimatedTotal),
		Query:      req.Query,
		Filters:    req.Filters,
	}

	if fromPrimary {
		s.writeCache(ctx, key, result)
		s.metrics.IncSearch("global", "ok")
	} else {
		s.metrics.IncSearch("global", "fallback")
	}
	result.TookMs = time.Since(started).Milliseconds()
	return result, nil
}

// query runs the primary provider and falls back on any error. The second
// return reports whether the primary answered; only primary results may be
// cached. Both providers failing returns nil.
func (s *SearchService) query(ctx context.Context, q ProviderQuery) (*ProviderResult, bool) {
	res, err := s.callProvider(ctx, s.primary, q)
	if err == nil {
		return res, true
	}
	log.Warn().Err(err).
		Str("provider", s.primary.Name()).
		Str("query", q.Text).
		Msg("primary provider failed")

	if s.fallback == nil || !searchindex.IsTransient(err) {
		return nil, false
	}
	s.metrics.IncFallback()

	res, err = s.callProvider(ctx, s.fallback, q)
	if err != nil {
		log.Error().Err(err).
			Str("provider", s.fallback.Name()).
			Str("query", q.Text).
			Msg("fallback provider failed")
		return nil, false
	}
	return res, false
}

func (s *SearchService) callProvider(ctx context.Context, p SearchProvider, q ProviderQuery) (*ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	res, err := p.Search(ctx, q)
	s.metrics.ObserveProviderLatency(p.Name(), time.Since(started))
	return res, err
}

// readCache returns the cached tree or nil. Cache failures are logged and
// treated as misses so redis never takes a search down.
func (s *SearchService) readCache(ctx context.Context, key string) *models.SearchResult {
	if s.cache == nil {
		return nil
	}
	result, err := s.cache.GetResult(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		s.metrics.IncCacheOp("error")
		return nil
	}
	if result == nil {
		s.metrics.IncCacheOp("miss")
		return nil
	}
	s.metrics.IncCacheOp("hit")
	return result
}

func (s *SearchService) writeCache(ctx context.Context, key string, result *models.SearchResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetResult(ctx, key, result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		s.metrics.IncCacheOp("error")
		return
	}
	s.metrics.IncCacheOp("set")
}

func (s *SearchService) emptyResult(query string, filters *models.SearchFilters, page, pageSize int, started time.Time) *models.SearchResult {
	return &models.SearchResult{
		Results:    []models.Listing{},
		Pagination: models.NewPagination(page, pageSize, 0),
		Query:      query,
		Filters:    filters,
		TookMs:     time.Since(started).Milliseconds(),
	}
}
