package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/pricing"
)

// ListingCache is the detail slice of the redis cache.
type ListingCache interface {
	GetListing(ctx context.Context, key string) (*models.Listing, error)
	SetListing(ctx context.Context, key string, listing *models.Listing) error
}

// ListingDetail is a listing plus the other offers in its product group,
// ordered by base price.
type ListingDetail struct {
	Listing      *models.Listing  `json:"listing"`
	Alternatives []models.Listing `json:"alternatives,omitempty"`
}

// ListingService serves single-listing lookups.
type ListingService struct {
	provider SearchProvider
	cache    ListingCache // nil when redis is not configured
	calc     *pricing.Calculator
	metrics  *metrics.Metrics
}

// NewListingService wires the detail lookup service.
func NewListingService(provider SearchProvider, listingCache ListingCache, calc *pricing.Calculator, m *metrics.Metrics) *ListingService {
	return &ListingService{provider: provider, cache: listingCache, calc: calc, metrics: m}
}

// GetDetail returns a listing with landed cost attached for international
// offers, plus the sibling offers in its product group. The listing itself
// is cached per destination country; alternatives are fetched fresh.
func (s *ListingService) GetDetail(ctx context.Context, id, country string) (*ListingDetail, error) {
	key := cache.ListingDetailKey(id, country)

	listing := s.readDetail(ctx, key)
	if listing == nil {
		fetched, err := s.provider.GetListing(ctx, id)
		if err != nil {
			return nil, err
		}
		listing = fetched
		if listing.Shop.Type == models.MarketGlobal && country != "" {
			intl := s.calc.ComputeLandedCost(listing, country, true)
			listing.Pricing.International = &intl
		}
		s.writeDetail(ctx, key, listing)
	}

	detail := &ListingDetail{Listing: listing}
	if listing.GroupID != "" {
		alternatives, err := s.provider.ListingsInGroup(ctx, listing.GroupID)
		if err != nil {
			log.Warn().Err(err).
				Str("listing_id", id).
				Str("group_id", listing.GroupID).
				Msg("group alternatives lookup failed")
		} else {
			for _, alt := range alternatives {
				if alt.ID != listing.ID {
					detail.Alternatives = append(detail.Alternatives, alt)
				}
			}
		}
	}
	return detail, nil
}

func (s *ListingService) readDetail(ctx context.Context, key string) *models.Listing {
	if s.cache == nil {
		return nil
	}
	listing, err := s.cache.GetListing(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("detail cache read failed")
		s.metrics.IncCacheOp("error")
		return nil
	}
	if listing == nil {
		s.metrics.IncCacheOp("miss")
		return nil
	}
	s.metrics.IncCacheOp("hit")
	return listing
}

func (s *ListingService) writeDetail(ctx context.Context, key string, listing *models.Listing) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetListing(ctx, key, listing); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("detail cache write failed")
		s.metrics.IncCacheOp("error")
		return
	}
	s.metrics.IncCacheOp("set")
}
