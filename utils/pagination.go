package utils

import "strconv"

// Page reads page/limit query values, falling back to 1 and defaultLimit and capping limit
// at maxLimit.
func Page(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// Paginate returns the bounds of page within n items and the total page count.
func Paginate(n, page, limit int) (from, to, totalPages int) {
	totalPages = (n + limit - 1) / limit
	from = (page - 1) * limit
	if from > n {
		from = n
	}
	to = from + limit
	if to > n {
		to = n
	}
	return from, to, totalPages
}
