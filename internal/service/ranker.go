package service

import (
	"sort"

	"github.com/pricegate/pricegate_api/internal/models"
)

// SortInstruction is the provider-neutral sort directive. The zero value
// means "provider default", which for the index is relevance order.
type SortInstruction struct {
	Field      string
	Descending bool
}

// Order renders the direction for the index wire contract.
func (s SortInstruction) Order() string {
	if s.Descending {
		return "desc"
	}
	return "asc"
}

// sqlOrderBy maps the instruction onto a whitelisted ORDER BY clause for
// the store provider. Anything unrecognized falls back to recency.
func (s SortInstruction) sqlOrderBy() string {
	switch s.Field {
	case "price":
		if s.Descending {
			return "price_amount DESC"
		}
		return "price_amount ASC"
	case "rating":
		return "rating DESC NULLS LAST"
	default:
		return "updated_at DESC"
	}
}

// SortOrder translates an API sort key into a provider instruction.
func SortOrder(key models.SortKey) SortInstruction {
	switch key {
	case models.SortPriceAsc:
		return SortInstruction{Field: "price"}
	case models.SortPriceDesc:
		return SortInstruction{Field: "price", Descending: true}
	case models.SortRating:
		return SortInstruction{Field: "rating", Descending: true}
	case models.SortNewest:
		return SortInstruction{Field: "updated_at", Descending: true}
	default:
		return SortInstruction{}
	}
}

// RerankByLandedCost reorders listings by their landed total where one is
// attached, base price otherwise. The sort is stable so listings with equal
// totals keep the provider's relative order.
func RerankByLandedCost(listings []models.Listing, descending bool) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i].LandedOrBase(), listings[j].LandedOrBase()
		if descending {
			return a > b
		}
		return a < b
	})
}
