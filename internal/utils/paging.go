package utils

// Page returns the window of items starting at offset. A limit <= 0 returns
// everything after offset.
func Page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
