package models

import "time"

// MarketType classifies a shop as same-country or international.
type MarketType string

const (
	MarketLocal  MarketType = "local"
	MarketGlobal MarketType = "global"
)

// Availability enumerates listing stock states.
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityLowStock   Availability = "low_stock"
	AvailabilityPreOrder   Availability = "pre_order"
	AvailabilityUnknown    Availability = "unknown"
)

// ShopInfo describes the shop behind a listing.
type ShopInfo struct {
	Name        string     `json:"name"`
	Type        MarketType `json:"type"`
	Country     string     `json:"country"`
	ShipsTo     []string   `json:"ships_to,omitempty"`
	Marketplace bool       `json:"marketplace"`
}

// Price is a monetary amount in a specific currency.
type Price struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	TaxInclusive bool    `json:"tax_inclusive"`
}

// ShippingInfo holds international shipping options for a listing.
type ShippingInfo struct {
	Available            bool     `json:"available"`
	StandardCost         float64  `json:"standard_cost"`
	ExpressCost          *float64 `json:"express_cost,omitempty"`
	FreeShippingOver     *float64 `json:"free_shipping_over,omitempty"`
	EstimatedDays        int      `json:"estimated_days"`
	ExpressEstimatedDays *int     `json:"express_estimated_days,omitempty"`
}

// ImportFees breaks down cross-border charges.
type ImportFees struct {
	ImportDuty       float64 `json:"import_duty"`
	VAT              float64 `json:"vat"`
	Handling         float64 `json:"handling"`
	CustomsClearance float64 `json:"customs_clearance"`
}

// RiskFlags mark the caveats of buying internationally. All three are set
// when the cost is an estimate rather than an authoritative figure.
type RiskFlags struct {
	CustomsDelay    bool `json:"customs_delay"`
	WarrantyVoid    bool `json:"warranty_void"`
	ReturnDifficult bool `json:"return_difficult"`
}

// InternationalCost is the full landed-cost breakdown for one listing and one
// destination country. It is derived per request and never persisted.
type InternationalCost struct {
	Shipping        ShippingInfo `json:"shipping"`
	Fees            ImportFees   `json:"fees"`
	TotalLandedCost float64      `json:"total_landed_cost"`
	Currency        string       `json:"currency"`
	Risks           RiskFlags    `json:"risks"`
}

// Pricing groups the base price with optional derived totals.
type Pricing struct {
	Base          Price              `json:"base"`
	LocalTotal    *float64           `json:"local_total,omitempty"`
	International *InternationalCost `json:"international,omitempty"`
}

// RecommendationFactors are the weighted inputs behind a recommendation score.
type RecommendationFactors struct {
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Availability float64 `json:"availability"`
	Delivery     float64 `json:"delivery"`
}

// Recommendation carries a precomputed score and its factors.
type Recommendation struct {
	Score   float64               `json:"score"`
	Factors RecommendationFactors `json:"factors"`
}

// Listing is one shop's sellable offer for a product.
type Listing struct {
	ID             string          `json:"id"`
	GroupID        string          `json:"group_id,omitempty"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand,omitempty"`
	Category       string          `json:"category,omitempty"`
	Images         []string        `json:"images,omitempty"`
	Description    string          `json:"description,omitempty"`
	Shop           ShopInfo        `json:"shop_info"`
	Pricing        Pricing         `json:"pricing"`
	Availability   Availability    `json:"availability"`
	Rating         *float64        `json:"rating,omitempty"`
	ReviewCount    *int            `json:"review_count,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	ScrapedAt      time.Time       `json:"scraped_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EffectivePrice is the amount a buyer in the listing's own market pays:
// the local total when already computed, otherwise the base amount.
func (l *Listing) EffectivePrice() float64 {
	if l.Pricing.LocalTotal != nil {
		return *l.Pricing.LocalTotal
	}
	return l.Pricing.Base.Amount
}

// LandedOrBase is the total landed cost when one has been computed, otherwise
// the base amount. Used as the comparison key for cross-market ranking.
func (l *Listing) LandedOrBase() float64 {
	if l.Pricing.International != nil && l.Pricing.International.TotalLandedCost > 0 {
		return l.Pricing.International.TotalLandedCost
	}
	return l.Pricing.Base.Amount
}

// InStock reports whether the listing can be bought right now.
func (l *Listing) InStock() bool {
	return l.Availability == AvailabilityInStock
}
