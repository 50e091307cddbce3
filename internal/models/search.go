package models

// SortKey selects the result ordering for a search.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// ValidSortKey reports whether k is one of the supported sort keys.
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
		return true
	}
	return false
}

// SearchFilters narrows a search. Every field is optional; a zero value means
// "no constraint". When both price bounds are present the validation boundary
// guarantees min <= max before the request reaches the core.
type SearchFilters struct {
	MinPrice     *float64       `json:"min_price,omitempty"`
	MaxPrice     *float64       `json:"max_price,omitempty"`
	InStockOnly  bool           `json:"in_stock_only,omitempty"`
	Shops        []string       `json:"shops,omitempty"`
	Categories   []string       `json:"categories,omitempty"`
	Brands       []string       `json:"brands,omitempty"`
	MinRating    *float64       `json:"min_rating,omitempty"`
	Availability []Availability `json:"availability,omitempty"`
}

// LocalSearchRequest searches same-country shops.
type LocalSearchRequest struct {
	Query              string         `json:"query"`
	Filters            *SearchFilters `json:"filters,omitempty"`
	Sort               SortKey        `json:"sort,omitempty"`
	Page               int            `json:"page"`
	PageSize           int            `json:"page_size"`
	Country            string         `json:"country"`
	CheckInternational bool           `json:"check_international,omitempty"`
}

// GlobalSearchRequest searches international shops with landed-cost options.
type GlobalSearchRequest struct {
	Query           string         `json:"query"`
	Filters         *SearchFilters `json:"filters,omitempty"`
	Sort            SortKey        `json:"sort,omitempty"`
	Page            int            `json:"page"`
	PageSize        int            `json:"page_size"`
	UserCountry     string         `json:"user_country"`
	IncludeShipping bool           `json:"include_shipping,omitempty"`
	IncludeAllFees  bool           `json:"include_all_fees,omitempty"`
	MinSellerRating *float64       `json:"min_seller_rating,omitempty"`
}

// Pagination describes the slice of results returned.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	PageSize     int  `json:"page_size"`
	TotalResults int  `json:"total_results"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// NewPagination derives pagination metadata from a total result count.
func NewPagination(page, pageSize, totalResults int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := (totalResults + pageSize - 1) / pageSize
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		PageSize:     pageSize,
		TotalResults: totalResults,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

// SmartDealSummary quantifies the savings behind a smart deal.
type SmartDealSummary struct {
	BestLocalPrice         float64 `json:"best_local_price"`
	BestInternationalTotal float64 `json:"best_international_total"`
	Savings                float64 `json:"savings"`
	SavingsPercent         float64 `json:"savings_percent"`
	ExtraDeliveryDays      int     `json:"extra_delivery_days"`
	ShopName               string  `json:"shop_name"`
	ShopCountry            string  `json:"shop_country"`
}

// SmartDeal flags an international listing that is meaningfully cheaper,
// landed, than the best local option.
type SmartDeal struct {
	Available bool              `json:"available"`
	Message   string            `json:"message,omitempty"`
	Summary   *SmartDealSummary `json:"summary,omitempty"`
	Listing   *Listing          `json:"listing,omitempty"`
}

// SearchResult is the immutable result tree built for one search request.
type SearchResult struct {
	Results    []Listing      `json:"results"`
	Pagination Pagination     `json:"pagination"`
	SmartDeal  *SmartDeal     `json:"smart_deal,omitempty"`
	Query      string         `json:"query"`
	Filters    *SearchFilters `json:"filters,omitempty"`
	TookMs     int64          `json:"took_ms"`
}
