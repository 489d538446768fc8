package utils

// PageCount returns how many pages of size perPage are needed for total rows.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageOffset returns the row offset for a 1-based page; pages below 1 are treated as 1.
func PageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
