package utils

import "errors"

// Common application errors used across services.
var (
	ErrListingNotFound = errors.New("LISTING_NOT_FOUND")
	ErrGroupNotFound   = errors.New("GROUP_NOT_FOUND")
	ErrInvalidQuery    = errors.New("INVALID_QUERY")
	ErrInvalidSort     = errors.New("INVALID_SORT")
	ErrInvalidPage     = errors.New("INVALID_PAGE")
	ErrInvalidFilters  = errors.New("INVALID_FILTERS")
	ErrInvalidCountry  = errors.New("INVALID_COUNTRY")
)
