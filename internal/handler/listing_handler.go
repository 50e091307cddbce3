package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pricegate/pricegate_api/internal/service"
	"github.com/pricegate/pricegate_api/internal/utils"
)

// ListingHandler serves single-listing lookups.
type ListingHandler struct {
	listings *service.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// GetListing handles GET /v1/listings/:id. An optional country query
// parameter requests landed-cost attachment for international offers.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "listing id is required")
		return
	}
	country := strings.ToUpper(strings.TrimSpace(c.Query("country")))
	if country != "" && len(country) != 2 {
		utils.Error(c, http.StatusBadRequest, "INVALID_COUNTRY", "country must be a 2-letter ISO code")
		return
	}

	detail, err := h.listings.GetDetail(c.Request.Context(), id, country)
	if err != nil {
		if errors.Is(err, utils.ErrListingNotFound) {
			utils.Error(c, http.StatusNotFound, "LISTING_NOT_FOUND", "listing not found")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "LOOKUP_FAILED", "listing lookup failed")
		return
	}
	utils.Success(c, http.StatusOK, "Listing retrieved", detail)
}
