package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/service"
	"github.com/pricegate/pricegate_api/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SearchHandler serves the local and global search endpoints.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// SearchLocal handles POST /v1/search/local.
func (h *SearchHandler) SearchLocal(c *gin.Context) {
	var req models.LocalSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		utils.Error(c, http.StatusBadRequest, "INVALID_QUERY", "query is required")
		return
	}
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	if len(req.Country) != 2 {
		utils.Error(c, http.StatusBadRequest, "INVALID_COUNTRY", "country must be a 2-letter ISO code")
		return
	}
	var ok bool
	if req.Page, req.PageSize, req.Sort, ok = normalizePaging(c, req.Page, req.PageSize, req.Sort); !ok {
		return
	}
	if !validFilters(c, req.Filters) {
		return
	}

	result, err := h.search.SearchLocal(c.Request.Context(), &req)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "SEARCH_FAILED", "search failed")
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Search completed", result, result.Pagination)
}

// SearchGlobal handles POST /v1/search/global.
func (h *SearchHandler) SearchGlobal(c *gin.Context) {
	var req models.GlobalSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		utils.Error(c, http.StatusBadRequest, "INVALID_QUERY", "query is required")
		return
	}
	req.UserCountry = strings.ToUpper(strings.TrimSpace(req.UserCountry))
	if len(req.UserCountry) != 2 {
		utils.Error(c, http.StatusBadRequest, "INVALID_COUNTRY", "user_country must be a 2-letter ISO code")
		return
	}
	if req.MinSellerRating != nil && (*req.MinSellerRating < 0 || *req.MinSellerRating > 5) {
		utils.Error(c, http.StatusBadRequest, "INVALID_FILTERS", "min_seller_rating must be between 0 and 5")
		return
	}
	var ok bool
	if req.Page, req.PageSize, req.Sort, ok = normalizePaging(c, req.Page, req.PageSize, req.Sort); !ok {
		return
	}
	if !validFilters(c, req.Filters) {
		return
	}

	result, err := h.search.SearchGlobal(c.Request.Context(), &req)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "SEARCH_FAILED", "search failed")
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Search completed", result, result.Pagination)
}

// normalizePaging applies paging defaults and validates the sort key. It
// reports false after writing an error response.
func normalizePaging(c *gin.Context, page, pageSize int, sort models.SortKey) (int, int, models.SortKey, bool) {
	if page < 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_PAGE", "page must be >= 1")
		return 0, 0, "", false
	}
	if page == 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		utils.Error(c, http.StatusBadRequest, "INVALID_PAGE", fmt.Sprintf("page_size must not exceed %d", maxPageSize))
		return 0, 0, "", false
	}
	if sort == "" {
		sort = models.SortRelevance
	}
	if !models.ValidSortKey(sort) {
		utils.Error(c, http.StatusBadRequest, "INVALID_SORT", "unknown sort key: "+string(sort))
		return 0, 0, "", false
	}
	return page, pageSize, sort, true
}

func validFilters(c *gin.Context, f *models.SearchFilters) bool {
	if f == nil {
		return true
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_FILTERS", "min_price must be >= 0")
		return false
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		utils.Error(c, http.StatusBadRequest, "INVALID_FILTERS", "min_price must not exceed max_price")
		return false
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		utils.Error(c, http.StatusBadRequest, "INVALID_FILTERS", "min_rating must be between 0 and 5")
		return false
	}
	return true
}
