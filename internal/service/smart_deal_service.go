package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/pricing"
)

// localDeliveryDays is the assumed delivery time for a domestic order,
// used to express an international option's delay as extra days.
const localDeliveryDays = 3

// GroupLookup is the slice of the provider contract the detector needs.
type GroupLookup interface {
	ListingsInGroup(ctx context.Context, groupID string) ([]models.Listing, error)
}

// SmartDealService compares a local listing against international offers in
// the same product group and reports when buying abroad is meaningfully
// cheaper after landed costs.
type SmartDealService struct {
	groups     GroupLookup
	calc       *pricing.Calculator
	converter  *pricing.Converter
	groupCache *expirable.LRU[string, []models.Listing]
}

// NewSmartDealService builds a detector. The LRU holds recently fetched
// product groups so repeated detections on popular products skip the
// provider round trip. Entries expire after memoTTL so price changes on
// the provider side reach the detector within one cache window.
func NewSmartDealService(groups GroupLookup, calc *pricing.Calculator, converter *pricing.Converter, memoTTL time.Duration) *SmartDealService {
	if memoTTL <= 0 {
		memoTTL = 10 * time.Minute
	}
	groupCache := expirable.NewLRU[string, []models.Listing](128, nil, memoTTL)
	return &SmartDealService{
		groups:     groups,
		calc:       calc,
		converter:  converter,
		groupCache: groupCache,
	}
}

// Detect checks whether any in-stock international listing in the local
// listing's product group lands cheaper than the local price by at least
// thresholdPct percent. It always returns a SmartDeal; Available is false
// when no qualifying offer exists. Only lookup or conversion failures
// return an error.
func (s *SmartDealService) Detect(ctx context.Context, local *models.Listing, userCountry string, thresholdPct float64) (*models.SmartDeal, error) {
	if local == nil || local.GroupID == "" {
		return &models.SmartDeal{Available: false}, nil
	}

	group, err := s.groupListings(ctx, local.GroupID)
	if err != nil {
		return nil, fmt.Errorf("smart deal group lookup: %w", err)
	}

	localPrice := local.EffectivePrice()
	localCurrency := local.Pricing.Base.Currency

	var (
		best      *models.Listing
		bestTotal float64
		bestIntl  models.InternationalCost
	)
	for i := range group {
		candidate := &group[i]
		if candidate.Shop.Type != models.MarketGlobal || !candidate.InStock() {
			continue
		}
		intl := s.calc.ComputeLandedCost(candidate, userCountry, true)
		total, err := s.converter.Convert(intl.TotalLandedCost, intl.Currency, localCurrency)
		if err != nil {
			log.Warn().Err(err).
				Str("listing_id", candidate.ID).
				Str("currency", intl.Currency).
				Msg("smart deal: skipping listing with unsupported currency")
			continue
		}
		if best == nil || total < bestTotal {
			candidateCopy := *candidate
			candidateCopy.Pricing.International = &intl
			best = &candidateCopy
			bestTotal = total
			bestIntl = intl
		}
	}

	if best == nil {
		return &models.SmartDeal{Available: false}, nil
	}

	savings := pricing.Round2(localPrice - bestTotal)
	if savings <= 0 || localPrice <= 0 {
		return &models.SmartDeal{Available: false}, nil
	}
	savingsPct := pricing.Round2(savings / localPrice * 100)
	if savingsPct < thresholdPct {
		return &models.SmartDeal{Available: false}, nil
	}

	extraDays := bestIntl.Shipping.EstimatedDays - localDeliveryDays
	if extraDays < 0 {
		extraDays = 0
	}

	return &models.SmartDeal{
		Available: true,
		Message: fmt.Sprintf("Save %.0f%% ordering from %s (%s): %.2f %s landed vs %.2f %s locally, about %d extra delivery days",
			savingsPct, best.Shop.Name, best.Shop.Country,
			bestTotal, localCurrency, localPrice, localCurrency, extraDays),
		Summary: &models.SmartDealSummary{
			BestLocalPrice:         localPrice,
			BestInternationalTotal: bestTotal,
			Savings:                savings,
			SavingsPercent:         savingsPct,
			ExtraDeliveryDays:      extraDays,
			ShopName:               best.Shop.Name,
			ShopCountry:            best.Shop.Country,
		},
		Listing: best,
	}, nil
}

func (s *SmartDealService) groupListings(ctx context.Context, groupID string) ([]models.Listing, error) {
	if cached, ok := s.groupCache.Get(groupID); ok {
		return cached, nil
	}
	group, err := s.groups.ListingsInGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.groupCache.Add(groupID, group)
	return group, nil
}
