package searchindex

import (
	"github.com/pricegate/pricegate_api/internal/models"
)

// Filters is the filter expression accepted by the index. Empty fields are
// ignored server-side.
type Filters struct {
	MarketType   string   `json:"market_type,omitempty"`
	Country      string   `json:"country,omitempty"`
	ShipsTo      string   `json:"ships_to,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	InStockOnly  bool     `json:"in_stock_only,omitempty"`
	Shops        []string `json:"shops,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Brands       []string `json:"brands,omitempty"`
	MinRating    *float64 `json:"min_rating,omitempty"`
	Availability []string `json:"availability,omitempty"`
}

// Sort is the index-level sort instruction. An empty field defers to the
// index's native relevance ranking.
type Sort struct {
	Field string `json:"field,omitempty"`
	Order string `json:"order,omitempty"`
}

// SearchRequest is the wire request for a paged search.
type SearchRequest struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
	Sort    Sort    `json:"sort"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// SearchResponse carries the page of hits and the index's estimate of the
// total matching count.
type SearchResponse struct {
	Hits           []models.Listing `json:"hits"`
	EstimatedTotal int              `json:"estimated_total"`
}

// groupResponse is the wire response for a group-listings lookup.
type groupResponse struct {
	Listings []models.Listing `json:"listings"`
}
