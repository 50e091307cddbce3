package models

import (
	"encoding/json"
	"testing"
)

func TestProductGroupSerialization(t *testing.T) {
	group := ProductGroup{
		ID:        "grp-1",
		Name:      "Wireless Headphones",
		ShopCount: 4,
		PriceRange: PriceRange{
			Min: 99, Max: 149, Currency: "USD",
		},
	}

	data, err := json.Marshal(group)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	// Group membership is resolved through listings.group_id, not stored
	// on the group itself.
	if _, ok := fields["listing_ids"]; ok {
		t.Error("serialized group exposes listing_ids, membership lives on listings")
	}
	for _, key := range []string{"id", "name", "shop_count", "price_range"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("serialized group missing %q", key)
		}
	}
}
