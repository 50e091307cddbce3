package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/pricing"
)

type fakeGroupLookup struct {
	listings map[string][]models.Listing
	calls    int
	err      error
}

func (f *fakeGroupLookup) ListingsInGroup(_ context.Context, groupID string) ([]models.Listing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings[groupID], nil
}

func dealTestConverter(t *testing.T) *pricing.Converter {
	t.Helper()
	c, err := pricing.NewConverter(pricing.RateTable{
		"USD": 1,
		"ILS": 3.65,
		"EUR": 0.92,
	})
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	return c
}

func localListing(id string, price float64) *models.Listing {
	return &models.Listing{
		ID:      id,
		GroupID: "grp-1",
		Shop:    models.ShopInfo{Name: "LocalShop", Type: models.MarketLocal, Country: "IL"},
		Pricing: models.Pricing{
			Base: models.Price{Amount: price, Currency: "ILS", TaxInclusive: true},
		},
		Availability: models.AvailabilityInStock,
	}
}

func globalListing(id string, priceUSD float64, availability models.Availability) models.Listing {
	return models.Listing{
		ID:      id,
		GroupID: "grp-1",
		Shop: models.ShopInfo{
			Name: "GlobalShop", Type: models.MarketGlobal, Country: "US",
			ShipsTo: []string{"IL"},
		},
		Pricing: models.Pricing{
			Base: models.Price{Amount: priceUSD, Currency: "USD"},
		},
		Availability: availability,
	}
}

func newDealService(lookup GroupLookup, t *testing.T) *SmartDealService {
	t.Helper()
	return NewSmartDealService(lookup, pricing.NewCalculator(pricing.NewFlatRateEstimator()), dealTestConverter(t), time.Minute)
}

func TestDetectFindsQualifyingDeal(t *testing.T) {
	// Local 1000 ILS. Global 100 USD lands at 127 USD = 463.55 ILS,
	// savings 536.45 ILS = 53.65%.
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}
	svc := newDealService(lookup, t)

	deal, err := svc.Detect(context.Background(), localListing("il-1", 1000), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !deal.Available {
		t.Fatal("Detect() found no deal, want one")
	}
	if deal.Summary == nil || deal.Listing == nil {
		t.Fatal("available deal missing summary or listing")
	}
	if deal.Summary.BestLocalPrice != 1000 {
		t.Errorf("best local price = %v, want 1000", deal.Summary.BestLocalPrice)
	}
	if deal.Summary.BestInternationalTotal != 463.55 {
		t.Errorf("best international total = %v, want 463.55", deal.Summary.BestInternationalTotal)
	}
	if math.Abs(deal.Summary.SavingsPercent-53.65) > 0.01 {
		t.Errorf("savings percent = %v, want ~53.65", deal.Summary.SavingsPercent)
	}
	if deal.Summary.ExtraDeliveryDays != 11 {
		t.Errorf("extra delivery days = %d, want 11", deal.Summary.ExtraDeliveryDays)
	}
	if deal.Listing.Pricing.International == nil {
		t.Error("chosen listing missing its landed cost breakdown")
	}
	if deal.Message == "" {
		t.Error("available deal missing message")
	}
}

func TestDetectBelowThreshold(t *testing.T) {
	// Local 480 ILS vs 463.55 ILS landed: ~3.4% savings, below 10%.
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}
	svc := newDealService(lookup, t)

	deal, err := svc.Detect(context.Background(), localListing("il-1", 480), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if deal.Available {
		t.Errorf("deal below threshold reported as available: %+v", deal.Summary)
	}
}

func TestDetectSameCurrencyThreshold(t *testing.T) {
	withLanded := func(total float64) models.Listing {
		l := globalListing("gl-fixed", 70, models.AvailabilityInStock)
		l.Pricing.International = &models.InternationalCost{
			TotalLandedCost: total,
			Currency:        "USD",
			Shipping:        models.ShippingInfo{Available: true, EstimatedDays: 12},
		}
		return l
	}
	local := localListing("il-1", 100)
	local.Pricing.Base.Currency = "USD"

	// 95 landed vs 100 local: 5% savings, below the 10% threshold.
	svc := newDealService(&fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {withLanded(95)},
	}}, t)
	deal, err := svc.Detect(context.Background(), local, "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if deal.Available {
		t.Error("5% savings reported as a deal at a 10% threshold")
	}

	// 85 landed vs 100 local: exactly 15% savings.
	svc = newDealService(&fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {withLanded(85)},
	}}, t)
	deal, err = svc.Detect(context.Background(), local, "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !deal.Available {
		t.Fatal("15% savings not reported as a deal")
	}
	if deal.Summary.SavingsPercent != 15 {
		t.Errorf("savings percent = %v, want 15", deal.Summary.SavingsPercent)
	}
	if deal.Summary.Savings != 15 {
		t.Errorf("savings = %v, want 15", deal.Summary.Savings)
	}
	if deal.Summary.ExtraDeliveryDays != 9 {
		t.Errorf("extra delivery days = %d, want 9", deal.Summary.ExtraDeliveryDays)
	}
}

func TestDetectThresholdBoundary(t *testing.T) {
	// Landed total 463.55 ILS. Local price chosen so savings land a hair
	// above and below 15%.
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}

	svc := newDealService(lookup, t)
	deal, err := svc.Detect(context.Background(), localListing("il-1", 550), "IL", 15)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	// savings 86.45 / 550 = 15.72%
	if !deal.Available {
		t.Error("deal above notify threshold reported unavailable")
	}

	svc = newDealService(&fakeGroupLookup{listings: lookup.listings}, t)
	deal, err = svc.Detect(context.Background(), localListing("il-2", 540), "IL", 15)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	// savings 76.45 / 540 = 14.16%
	if deal.Available {
		t.Error("deal below notify threshold reported available")
	}
}

func TestDetectSkipsUnbuyableListings(t *testing.T) {
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {
			globalListing("gl-out", 10, models.AvailabilityOutOfStock),
			globalListing("gl-low", 20, models.AvailabilityLowStock),
			*localListing("il-other", 100),
		},
	}}
	svc := newDealService(lookup, t)

	deal, err := svc.Detect(context.Background(), localListing("il-1", 1000), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if deal.Available {
		t.Error("deal built from out-of-stock or local listings")
	}
}

func TestDetectPicksCheapestLanded(t *testing.T) {
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {
			globalListing("gl-expensive", 150, models.AvailabilityInStock),
			globalListing("gl-cheap", 100, models.AvailabilityInStock),
			globalListing("gl-mid", 120, models.AvailabilityInStock),
		},
	}}
	svc := newDealService(lookup, t)

	deal, err := svc.Detect(context.Background(), localListing("il-1", 1000), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !deal.Available {
		t.Fatal("Detect() found no deal, want one")
	}
	if deal.Listing.ID != "gl-cheap" {
		t.Errorf("chose %s, want gl-cheap", deal.Listing.ID)
	}
}

func TestDetectNoGroup(t *testing.T) {
	svc := newDealService(&fakeGroupLookup{}, t)

	local := localListing("il-1", 1000)
	local.GroupID = ""
	deal, err := svc.Detect(context.Background(), local, "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if deal.Available {
		t.Error("ungrouped listing produced a deal")
	}

	deal, err = svc.Detect(context.Background(), nil, "IL", 10)
	if err != nil {
		t.Fatalf("Detect(nil) error = %v", err)
	}
	if deal.Available {
		t.Error("nil listing produced a deal")
	}
}

func TestDetectLookupError(t *testing.T) {
	svc := newDealService(&fakeGroupLookup{err: errors.New("index down")}, t)

	if _, err := svc.Detect(context.Background(), localListing("il-1", 1000), "IL", 10); err == nil {
		t.Error("Detect() should surface group lookup failures")
	}
}

func TestDetectMemoizesGroupLookup(t *testing.T) {
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}
	svc := newDealService(lookup, t)

	for i := 0; i < 3; i++ {
		if _, err := svc.Detect(context.Background(), localListing("il-1", 1000), "IL", 10); err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
	}
	if lookup.calls != 1 {
		t.Errorf("group lookup called %d times, want 1", lookup.calls)
	}
}

func TestDetectRefetchesGroupAfterExpiry(t *testing.T) {
	// A provider-side price change must reach the detector once the
	// memo entry expires. 100 USD lands at 463.55 ILS; after the shop
	// doubles the price, 200 USD lands at 927.10 ILS.
	lookup := &fakeGroupLookup{listings: map[string][]models.Listing{
		"grp-1": {globalListing("gl-1", 100, models.AvailabilityInStock)},
	}}
	svc := NewSmartDealService(lookup, pricing.NewCalculator(pricing.NewFlatRateEstimator()), dealTestConverter(t), 10*time.Millisecond)

	deal, err := svc.Detect(context.Background(), localListing("il-1", 2000), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if math.Abs(deal.Summary.BestInternationalTotal-463.55) > 0.01 {
		t.Fatalf("BestInternationalTotal = %v, want 463.55", deal.Summary.BestInternationalTotal)
	}

	lookup.listings["grp-1"] = []models.Listing{globalListing("gl-1", 200, models.AvailabilityInStock)}
	time.Sleep(30 * time.Millisecond)

	deal, err = svc.Detect(context.Background(), localListing("il-1", 2000), "IL", 10)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if math.Abs(deal.Summary.BestInternationalTotal-927.10) > 0.01 {
		t.Errorf("BestInternationalTotal after expiry = %v, want 927.10", deal.Summary.BestInternationalTotal)
	}
	if lookup.calls != 2 {
		t.Errorf("group lookup called %d times, want 2", lookup.calls)
	}
}
