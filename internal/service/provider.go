package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/repository"
	"github.com/pricegate/pricegate_api/internal/utils"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

// ProviderQuery is the provider-agnostic search query built by the
// orchestrator. Every provider implementation serves the same contract so
// the orchestrator never knows which one is active.
type ProviderQuery struct {
	Text    string
	Market  models.MarketType
	Country string // shop country for local, destination ships-to for global
	Filters *models.SearchFilters
	Sort    SortInstruction
	Limit   int
	Offset  int
}

// ProviderResult is a page of listings plus the provider's estimate of the
// total matching count.
type ProviderResult struct {
	Listings       []models.Listing
	EstimatedTotal int
}

// SearchProvider is the contract both the search index and the raw store
// fulfil. Config selects the active implementation at startup; the
// orchestrator receives it injected at construction.
type SearchProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Search runs a filtered, sorted, paged query.
	Search(ctx context.Context, q ProviderQuery) (*ProviderResult, error)

	// ListingsInGroup returns every listing in a product group.
	ListingsInGroup(ctx context.Context, groupID string) ([]models.Listing, error)

	// GetListing returns one listing by id, or utils.ErrListingNotFound.
	GetListing(ctx context.Context, id string) (*models.Listing, error)
}

// IndexProvider adapts the search-index HTTP client to SearchProvider.
type IndexProvider struct {
	client *searchindex.Client
}

// NewIndexProvider wraps a search-index client.
func NewIndexProvider(client *searchindex.Client) *IndexProvider {
	return &IndexProvider{client: client}
}

// Name implements SearchProvider.
func (p *IndexProvider) Name() string { return "index" }

// Search implements SearchProvider over the index wire contract.
func (p *IndexProvider) Search(ctx context.Context, q ProviderQuery) (*ProviderResult, error) {
	req := &searchindex.SearchRequest{
		Query:  q.Text,
		Sort:   searchindex.Sort{Field: q.Sort.Field, Order: q.Sort.Order()},
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	req.Filters.MarketType = string(q.Market)
	if q.Market == models.MarketGlobal {
		req.Filters.ShipsTo = q.Country
	} else {
		req.Filters.Country = q.Country
	}
	if f := q.Filters; f != nil {
		req.Filters.MinPrice = f.MinPrice
		req.Filters.MaxPrice = f.MaxPrice
		req.Filters.InStockOnly = f.InStockOnly
		req.Filters.Shops = f.Shops
		req.Filters.Categories = f.Categories
		req.Filters.Brands = f.Brands
		req.Filters.MinRating = f.MinRating
		for _, a := range f.Availability {
			req.Filters.Availability = append(req.Filters.Availability, string(a))
		}
	}

	resp, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	return &ProviderResult{Listings: resp.Hits, EstimatedTotal: resp.EstimatedTotal}, nil
}

// ListingsInGroup implements SearchProvider.
func (p *IndexProvider) ListingsInGroup(ctx context.Context, groupID string) ([]models.Listing, error) {
	return p.client.ListingsInGroup(ctx, groupID)
}

// GetListing implements SearchProvider. The index has no point-lookup
// endpoint, so a one-hit id search stands in.
func (p *IndexProvider) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	resp, err := p.client.Search(ctx, &searchindex.SearchRequest{Query: "id:" + id, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("index lookup: %w", err)
	}
	if len(resp.Hits) == 0 {
		return nil, utils.ErrListingNotFound
	}
	listing := resp.Hits[0]
	return &listing, nil
}

// StoreProvider adapts the listing repository to SearchProvider. It is the
// degraded fallback: filtered finds over Postgres, no relevance ranking,
// typically slower than the index.
type StoreProvider struct {
	listings *repository.ListingRepository
}

// NewStoreProvider wraps the listing repository.
func NewStoreProvider(listings *repository.ListingRepository) *StoreProvider {
	return &StoreProvider{listings: listings}
}

// Name implements SearchProvider.
func (p *StoreProvider) Name() string { return "store" }

// Search implements SearchProvider with a repository query.
func (p *StoreProvider) Search(ctx context.Context, q ProviderQuery) (*ProviderResult, error) {
	rq := repository.ListingQuery{
		Text:       q.Text,
		MarketType: q.Market,
		Country:    q.Country,
		OrderBy:    q.Sort.sqlOrderBy(),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if f := q.Filters; f != nil {
		rq.MinPrice = f.MinPrice
		rq.MaxPrice = f.MaxPrice
		rq.InStockOnly = f.InStockOnly
		rq.Shops = f.Shops
		rq.Categories = f.Categories
		rq.Brands = f.Brands
		rq.MinRating = f.MinRating
		rq.Availability = f.Availability
	}

	listings, total, err := p.listings.Search(ctx, rq)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}
	return &ProviderResult{Listings: listings, EstimatedTotal: total}, nil
}

// ListingsInGroup implements SearchProvider.
func (p *StoreProvider) ListingsInGroup(ctx context.Context, groupID string) ([]models.Listing, error) {
	return p.listings.GetByGroupID(ctx, groupID)
}

// GetListing implements SearchProvider.
func (p *StoreProvider) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := p.listings.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store lookup: %w", err)
	}
	return listing, nil
}
