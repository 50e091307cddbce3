package service

import (
	"testing"

	"github.com/pricegate/pricegate_api/internal/models"
)

func listingWithTotal(id string, base, landed float64) models.Listing {
	l := models.Listing{
		ID:      id,
		Pricing: models.Pricing{Base: models.Price{Amount: base, Currency: "USD"}},
	}
	if landed > 0 {
		l.Pricing.International = &models.InternationalCost{TotalLandedCost: landed, Currency: "USD"}
	}
	return l
}

func TestSortOrder(t *testing.T) {
	tests := []struct {
		key  models.SortKey
		want SortInstruction
	}{
		{models.SortRelevance, SortInstruction{}},
		{models.SortPriceAsc, SortInstruction{Field: "price"}},
		{models.SortPriceDesc, SortInstruction{Field: "price", Descending: true}},
		{models.SortRating, SortInstruction{Field: "rating", Descending: true}},
		{models.SortNewest, SortInstruction{Field: "updated_at", Descending: true}},
	}
	for _, tt := range tests {
		if got := SortOrder(tt.key); got != tt.want {
			t.Errorf("SortOrder(%s) = %+v, want %+v", tt.key, got, tt.want)
		}
	}
}

func TestRerankByLandedCost(t *testing.T) {
	listings := []models.Listing{
		listingWithTotal("a", 90, 140), // cheap base, expensive landed
		listingWithTotal("b", 120, 125),
		listingWithTotal("c", 100, 0), // no breakdown, ranks by base
	}

	RerankByLandedCost(listings, false)

	gotOrder := []string{listings[0].ID, listings[1].ID, listings[2].ID}
	wantOrder := []string{"c", "b", "a"} // 100, 125, 140
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("ascending order = %v, want %v", gotOrder, wantOrder)
		}
	}

	RerankByLandedCost(listings, true)
	if listings[0].ID != "a" || listings[2].ID != "c" {
		t.Errorf("descending order = [%s %s %s], want [a b c]",
			listings[0].ID, listings[1].ID, listings[2].ID)
	}
}

func TestRerankByLandedCostStable(t *testing.T) {
	listings := []models.Listing{
		listingWithTotal("first", 100, 127),
		listingWithTotal("second", 100, 127),
		listingWithTotal("third", 100, 127),
	}

	RerankByLandedCost(listings, false)

	if listings[0].ID != "first" || listings[1].ID != "second" || listings[2].ID != "third" {
		t.Errorf("equal totals lost provider order: [%s %s %s]",
			listings[0].ID, listings[1].ID, listings[2].ID)
	}
}

func TestSQLOrderByWhitelist(t *testing.T) {
	tests := []struct {
		in   SortInstruction
		want string
	}{
		{SortInstruction{Field: "price"}, "price_amount ASC"},
		{SortInstruction{Field: "price", Descending: true}, "price_amount DESC"},
		{SortInstruction{Field: "rating", Descending: true}, "rating DESC NULLS LAST"},
		{SortInstruction{Field: "updated_at", Descending: true}, "updated_at DESC"},
		{SortInstruction{}, "updated_at DESC"},
		{SortInstruction{Field: "name; DROP TABLE listings"}, "updated_at DESC"},
	}
	for _, tt := range tests {
		if got := tt.in.sqlOrderBy(); got != tt.want {
			t.Errorf("sqlOrderBy(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
