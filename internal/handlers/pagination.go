package handlers

import (
	"math"
	"strconv"

	"avenue/internal/apperr"
)

// parsePaginationParams returns zeros when neither value is supplied so the
// caller lists everything.
func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	if pageStr == "" && limitStr == "" {
		return 0, 0, nil
	}

	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, apperr.Validation("invalid pagination params")
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, apperr.Validation("invalid pagination params")
		}
		limit = l
	}

	// the skip offset must fit in an int64
	if page-1 > math.MaxInt64/limit {
		return 0, 0, apperr.Validation("invalid pagination params")
	}

	return page, limit, nil
}
