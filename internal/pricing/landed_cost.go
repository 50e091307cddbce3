package pricing

import (
	"github.com/pricegate/pricegate_api/internal/models"
)

// CostEstimator produces an international cost breakdown for a listing that
// does not carry an authoritative one. Implementations are interchangeable;
// the orchestrator never depends on a concrete estimator.
type CostEstimator interface {
	Estimate(listing *models.Listing, destinationCountry string, includeFees bool) models.InternationalCost
}

// FlatRateEstimator estimates shipping and import fees as flat fractions of
// the base price. The rates are placeholders until per-shop import_rules and
// shipping tables exist; a replacement implementation only needs to satisfy
// CostEstimator.
type FlatRateEstimator struct {
	ShippingRate         float64 // fraction of base price
	FeePoolRate          float64 // duty+VAT pool, fraction of base price
	DutyShare            float64 // share of the fee pool treated as duty
	VATShare             float64 // share of the fee pool treated as VAT
	StandardDeliveryDays int
}

// NewFlatRateEstimator returns the default flat-rate estimator: 10% shipping,
// 17% duty+VAT pool split 30/70, 14-day standard delivery.
func NewFlatRateEstimator() *FlatRateEstimator {
	return &FlatRateEstimator{
		ShippingRate:         0.10,
		FeePoolRate:          0.17,
		DutyShare:            0.30,
		VATShare:             0.70,
		StandardDeliveryDays: 14,
	}
}

// Estimate computes the breakdown from the base price. All fractions are of
// the base price in its own currency; currency conversion happens only when
// totals are compared across markets, never here. Risk flags are all raised
// because the figures are low-confidence estimates.
func (e *FlatRateEstimator) Estimate(listing *models.Listing, destinationCountry string, includeFees bool) models.InternationalCost {
	base := listing.Pricing.Base.Amount

	shipping := Round2(base * e.ShippingRate)
	var pool float64
	if includeFees {
		pool = Round2(base * e.FeePoolRate)
	}
	duty := Round2(pool * e.DutyShare)
	vat := Round2(pool * e.VATShare)

	return models.InternationalCost{
		Shipping: models.ShippingInfo{
			Available:     true,
			StandardCost:  shipping,
			EstimatedDays: e.StandardDeliveryDays,
		},
		Fees: models.ImportFees{
			ImportDuty: duty,
			VAT:        vat,
		},
		TotalLandedCost: Round2(base + shipping + pool),
		Currency:        listing.Pricing.Base.Currency,
		Risks: models.RiskFlags{
			CustomsDelay:    true,
			WarrantyVoid:    true,
			ReturnDifficult: true,
		},
	}
}

// Calculator attaches landed costs to listings.
type Calculator struct {
	estimator CostEstimator
}

// NewCalculator builds a Calculator around the given estimator.
func NewCalculator(estimator CostEstimator) *Calculator {
	return &Calculator{estimator: estimator}
}

// ComputeLandedCost returns the listing's international cost breakdown. A
// breakdown already attached upstream is returned unchanged regardless of the
// other inputs; estimation only runs when no authoritative total exists.
func (c *Calculator) ComputeLandedCost(listing *models.Listing, destinationCountry string, includeFees bool) models.InternationalCost {
	if intl := listing.Pricing.International; intl != nil && intl.TotalLandedCost > 0 {
		return *intl
	}
	return c.estimator.Estimate(listing, destinationCountry, includeFees)
}
