package util

// Calculate clamps page/limit and returns the matching offset. Default page
// size is 20, capped at 100.
func Calculate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
