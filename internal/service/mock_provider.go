package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/utils"
)

// MockProvider serves canned listings from memory. It backs local
// development and CI so the API runs without Postgres or a search index.
type MockProvider struct {
	listings []models.Listing
}

// NewMockProvider builds a provider over the bundled fixture catalog.
func NewMockProvider() *MockProvider {
	return &MockProvider{listings: fixtureListings()}
}

// Name implements SearchProvider.
func (p *MockProvider) Name() string { return "mock" }

// Search implements SearchProvider with an in-memory scan.
func (p *MockProvider) Search(_ context.Context, q ProviderQuery) (*ProviderResult, error) {
	var matched []models.Listing
	text := strings.ToLower(strings.TrimSpace(q.Text))
	for _, l := range p.listings {
		if q.Market != "" && l.Shop.Type != q.Market {
			continue
		}
		if q.Market == models.MarketGlobal {
			if q.Country != "" && !shipsTo(&l, q.Country) {
				continue
			}
		} else if q.Country != "" && !strings.EqualFold(l.Shop.Country, q.Country) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(l.Name), text) &&
			!strings.Contains(strings.ToLower(l.Brand), text) {
			continue
		}
		if !matchFilters(&l, q.Filters) {
			continue
		}
		matched = append(matched, l)
	}

	applySort(matched, q.Sort)

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return &ProviderResult{Listings: matched[start:end], EstimatedTotal: total}, nil
}

// ListingsInGroup implements SearchProvider.
func (p *MockProvider) ListingsInGroup(_ context.Context, groupID string) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range p.listings {
		if l.GroupID == groupID {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetListing implements SearchProvider.
func (p *MockProvider) GetListing(_ context.Context, id string) (*models.Listing, error) {
	for _, l := range p.listings {
		if l.ID == id {
			listing := l
			return &listing, nil
		}
	}
	return nil, utils.ErrListingNotFound
}

func shipsTo(l *models.Listing, country string) bool {
	for _, c := range l.Shop.ShipsTo {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

func matchFilters(l *models.Listing, f *models.SearchFilters) bool {
	if f == nil {
		return true
	}
	price := l.Pricing.Base.Amount
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	if f.InStockOnly && !l.InStock() {
		return false
	}
	if f.MinRating != nil && (l.Rating == nil || *l.Rating < *f.MinRating) {
		return false
	}
	if len(f.Shops) > 0 && !containsFold(f.Shops, l.Shop.Name) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, l.Category) {
		return false
	}
	if len(f.Brands) > 0 && !containsFold(f.Brands, l.Brand) {
		return false
	}
	if len(f.Availability) > 0 {
		found := false
		for _, a := range f.Availability {
			if a == l.Availability {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func applySort(listings []models.Listing, s SortInstruction) {
	switch s.Field {
	case "price":
		sort.SliceStable(listings, func(i, j int) bool {
			a, b := listings[i].Pricing.Base.Amount, listings[j].Pricing.Base.Amount
			if s.Descending {
				return a > b
			}
			return a < b
		})
	case "rating":
		sort.SliceStable(listings, func(i, j int) bool {
			return ratingOf(&listings[i]) > ratingOf(&listings[j])
		})
	case "updated_at":
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].UpdatedAt.After(listings[j].UpdatedAt)
		})
	}
}

func ratingOf(l *models.Listing) float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func fixtureListings() []models.Listing {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []models.Listing{
		{
			ID: "lst-il-001", GroupID: "grp-headphones-01",
			Name: "SonicWave Pro Headphones", Brand: "SonicWave", Category: "audio",
			Shop: models.ShopInfo{Name: "AudioCity", Type: models.MarketLocal, Country: "IL"},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 549.90, Currency: "ILS", TaxInclusive: true},
			},
			Availability: models.AvailabilityInStock,
			Rating:       floatPtr(4.6), ReviewCount: intPtr(312),
			ScrapedAt: now, UpdatedAt: now,
		},
		{
			ID: "lst-il-002", GroupID: "grp-headphones-01",
			Name: "SonicWave Pro Headphones", Brand: "SonicWave", Category: "audio",
			Shop: models.ShopInfo{Name: "TechMarket", Type: models.MarketLocal, Country: "IL"},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 598.00, Currency: "ILS", TaxInclusive: true},
			},
			Availability: models.AvailabilityInStock,
			Rating:       floatPtr(4.2), ReviewCount: intPtr(87),
			ScrapedAt: now, UpdatedAt: now.Add(-6 * time.Hour),
		},
		{
			ID: "lst-gl-001", GroupID: "grp-headphones-01",
			Name: "SonicWave Pro Headphones", Brand: "SonicWave", Category: "audio",
			Shop: models.ShopInfo{
				Name: "GlobalSound", Type: models.MarketGlobal, Country: "US",
				ShipsTo: []string{"IL", "GB", "DE"}, Marketplace: true,
			},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 99.00, Currency: "USD"},
			},
			Availability: models.AvailabilityInStock,
			Rating:       floatPtr(4.7), ReviewCount: intPtr(5120),
			ScrapedAt: now, UpdatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "lst-gl-002", GroupID: "grp-headphones-01",
			Name: "SonicWave Pro Headphones", Brand: "SonicWave", Category: "audio",
			Shop: models.ShopInfo{
				Name: "EuroHiFi", Type: models.MarketGlobal, Country: "DE",
				ShipsTo: []string{"IL", "FR", "AT"},
			},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 119.00, Currency: "EUR"},
			},
			Availability: models.AvailabilityLowStock,
			Rating:       floatPtr(4.4), ReviewCount: intPtr(240),
			ScrapedAt: now, UpdatedAt: now.Add(-12 * time.Hour),
		},
		{
			ID: "lst-il-010", GroupID: "grp-espresso-02",
			Name: "BaristaOne Espresso Machine", Brand: "BaristaOne", Category: "kitchen",
			Shop: models.ShopInfo{Name: "HomeBrew", Type: models.MarketLocal, Country: "IL"},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 1890.00, Currency: "ILS", TaxInclusive: true},
			},
			Availability: models.AvailabilityOutOfStock,
			Rating:       floatPtr(4.8), ReviewCount: intPtr(56),
			ScrapedAt: now, UpdatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID: "lst-gl-010", GroupID: "grp-espresso-02",
			Name: "BaristaOne Espresso Machine", Brand: "BaristaOne", Category: "kitchen",
			Shop: models.ShopInfo{
				Name: "KitchenDirect", Type: models.MarketGlobal, Country: "CN",
				ShipsTo: []string{"IL", "US", "GB"}, Marketplace: true,
			},
			Pricing: models.Pricing{
				Base: models.Price{Amount: 2480.00, Currency: "CNY"},
			},
			Availability: models.AvailabilityInStock,
			Rating:       floatPtr(4.1), ReviewCount: intPtr(1834),
			ScrapedAt: now, UpdatedAt: now.Add(-3 * time.Hour),
		},
	}
}
