package cache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/pricegate/pricegate_api/internal/models"
)

// Key namespaces per search mode.
const (
	localKeyPrefix  = "search:local:"
	globalKeyPrefix = "search:global:"
	detailKeyPrefix = "listing:detail:"

	keySeparator = "|"
)

// LocalSearchKey builds the deterministic cache key for a local search
// request. Requests that differ only in the order of multi-value filter
// arrays produce the same key.
func LocalSearchKey(req *models.LocalSearchRequest) string {
	tokens := baseTokens(req.Query, req.Page, req.PageSize, req.Sort, req.Country)
	if req.CheckInternational {
		tokens = append(tokens, "intl:true")
	}
	tokens = appendFilterTokens(tokens, req.Filters)
	return localKeyPrefix + hashTokens(tokens)
}

// GlobalSearchKey builds the deterministic cache key for a global search
// request. Fee-inclusion flags are part of the key because they change the
// computed totals in the cached payload.
func GlobalSearchKey(req *models.GlobalSearchRequest) string {
	tokens := baseTokens(req.Query, req.Page, req.PageSize, req.Sort, req.UserCountry)
	if req.IncludeShipping {
		tokens = append(tokens, "ship:true")
	}
	if req.IncludeAllFees {
		tokens = append(tokens, "fees:true")
	}
	if req.MinSellerRating != nil {
		tokens = append(tokens, "msr:"+formatFloat(*req.MinSellerRating))
	}
	tokens = appendFilterTokens(tokens, req.Filters)
	return globalKeyPrefix + hashTokens(tokens)
}

// ListingDetailKey builds the cache key for a listing detail lookup.
func ListingDetailKey(listingID, country string) string {
	return detailKeyPrefix + listingID + ":" + strings.ToUpper(country)
}

func baseTokens(query string, page, pageSize int, sort models.SortKey, country string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	return []string{
		"q:" + q,
		"page:" + strconv.Itoa(page),
		"size:" + strconv.Itoa(pageSize),
		"sort:" + string(sort),
		"country:" + strings.ToUpper(country),
	}
}

// appendFilterTokens encodes the optional filters. Multi-value filters are
// sorted before joining so that array order in the request never changes the
// key.
func appendFilterTokens(tokens []string, f *models.SearchFilters) []string {
	if f == nil {
		return tokens
	}
	if f.MinPrice != nil {
		tokens = append(tokens, "minp:"+formatFloat(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		tokens = append(tokens, "maxp:"+formatFloat(*f.MaxPrice))
	}
	if f.InStockOnly {
		tokens = append(tokens, "stock:true")
	}
	if f.MinRating != nil {
		tokens = append(tokens, "minr:"+formatFloat(*f.MinRating))
	}
	if len(f.Shops) > 0 {
		tokens = append(tokens, "shops:"+sortedJoin(f.Shops))
	}
	if len(f.Categories) > 0 {
		tokens = append(tokens, "cats:"+sortedJoin(f.Categories))
	}
	if len(f.Brands) > 0 {
		tokens = append(tokens, "brands:"+sortedJoin(f.Brands))
	}
	if len(f.Availability) > 0 {
		avail := make([]string, 0, len(f.Availability))
		for _, a := range f.Availability {
			avail = append(avail, string(a))
		}
		tokens = append(tokens, "avail:"+sortedJoin(avail))
	}
	return tokens
}

func sortedJoin(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// hashTokens joins the tokens and hashes them with 32-bit FNV-1a. Collisions
// are not handled; the compact key is an accepted tradeoff.
func hashTokens(tokens []string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(tokens, keySeparator)))
	return fmt.Sprintf("%08x", h.Sum32())
}
