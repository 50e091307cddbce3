package pricing

import (
	"math"
	"testing"

	"github.com/pricegate/pricegate_api/internal/models"
)

func listingWithBase(amount float64, currency string) *models.Listing {
	return &models.Listing{
		ID: "lst-1",
		Pricing: models.Pricing{
			Base: models.Price{Amount: amount, Currency: currency},
		},
	}
}

func TestFlatRateEstimateBreakdown(t *testing.T) {
	e := NewFlatRateEstimator()
	l := listingWithBase(100, "USD")

	got := e.Estimate(l, "IL", true)

	if got.Shipping.StandardCost != 10 {
		t.Errorf("shipping = %v, want 10", got.Shipping.StandardCost)
	}
	if got.Fees.ImportDuty != 5.1 {
		t.Errorf("import duty = %v, want 5.1", got.Fees.ImportDuty)
	}
	if got.Fees.VAT != 11.9 {
		t.Errorf("vat = %v, want 11.9", got.Fees.VAT)
	}
	if got.TotalLandedCost != 127 {
		t.Errorf("total = %v, want 127", got.TotalLandedCost)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if got.Shipping.EstimatedDays != 14 {
		t.Errorf("estimated days = %d, want 14", got.Shipping.EstimatedDays)
	}
	if !got.Risks.CustomsDelay || !got.Risks.WarrantyVoid || !got.Risks.ReturnDifficult {
		t.Errorf("all risk flags should be raised on an estimate, got %+v", got.Risks)
	}
}

func TestFlatRateEstimateShippingOnly(t *testing.T) {
	e := NewFlatRateEstimator()
	l := listingWithBase(100, "USD")

	got := e.Estimate(l, "IL", false)

	if got.Fees.ImportDuty != 0 || got.Fees.VAT != 0 {
		t.Errorf("fees should be zero without fee inclusion, got %+v", got.Fees)
	}
	if got.TotalLandedCost != 110 {
		t.Errorf("total = %v, want 110", got.TotalLandedCost)
	}
}

func TestFlatRateEstimateMonotonic(t *testing.T) {
	e := NewFlatRateEstimator()

	prev := 0.0
	for _, base := range []float64{1, 10, 99.99, 500, 12345.67} {
		got := e.Estimate(listingWithBase(base, "EUR"), "IL", true)
		if got.TotalLandedCost <= prev {
			t.Errorf("total for base %v = %v, not greater than previous %v", base, got.TotalLandedCost, prev)
		}
		if got.TotalLandedCost < base {
			t.Errorf("total %v below base price %v", got.TotalLandedCost, base)
		}
		prev = got.TotalLandedCost
	}
}

func TestComputeLandedCostKeepsAttachedBreakdown(t *testing.T) {
	calc := NewCalculator(NewFlatRateEstimator())
	l := listingWithBase(100, "USD")
	attached := models.InternationalCost{
		TotalLandedCost: 142.50,
		Currency:        "USD",
		Shipping:        models.ShippingInfo{Available: true, StandardCost: 25, EstimatedDays: 9},
	}
	l.Pricing.International = &attached

	got := calc.ComputeLandedCost(l, "IL", true)
	if got.TotalLandedCost != 142.50 {
		t.Errorf("attached total replaced: got %v, want 142.50", got.TotalLandedCost)
	}
	if got.Shipping.EstimatedDays != 9 {
		t.Errorf("attached shipping replaced: got %d days, want 9", got.Shipping.EstimatedDays)
	}
}

func TestComputeLandedCostEstimatesWhenMissing(t *testing.T) {
	calc := NewCalculator(NewFlatRateEstimator())

	// No breakdown at all.
	l := listingWithBase(100, "USD")
	if got := calc.ComputeLandedCost(l, "IL", true); got.TotalLandedCost != 127 {
		t.Errorf("total = %v, want 127", got.TotalLandedCost)
	}

	// Zero-total breakdown counts as missing.
	l.Pricing.International = &models.InternationalCost{Currency: "USD"}
	if got := calc.ComputeLandedCost(l, "IL", true); got.TotalLandedCost != 127 {
		t.Errorf("zero-total breakdown should be re-estimated, got %v", got.TotalLandedCost)
	}
}

func TestEstimateDutyVATSplitSumsToPool(t *testing.T) {
	e := NewFlatRateEstimator()
	for _, base := range []float64{33.33, 100, 777.77} {
		got := e.Estimate(listingWithBase(base, "GBP"), "IL", true)
		pool := Round2(base * e.FeePoolRate)
		if diff := math.Abs(got.Fees.ImportDuty + got.Fees.VAT - pool); diff > 0.01 {
			t.Errorf("duty+vat for base %v drifts %v from pool %v", base, diff, pool)
		}
	}
}
