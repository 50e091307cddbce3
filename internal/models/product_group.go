package models

import "time"

// PriceRange is the min/max base price observed across a group's listings.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// ProductGroup clusters listings judged to be the same underlying product
// across shops. Group lifecycle (creation, merging) is owned by an external
// normalization process; this service only reads groups to find alternatives.
type ProductGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Brand      string     `json:"brand,omitempty"`
	Category   string     `json:"category,omitempty"`
	Image      string     `json:"image,omitempty"`
	ShopCount  int        `json:"shop_count"`
	PriceRange PriceRange `json:"price_range"`
	AvgRating  float64    `json:"avg_rating,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
