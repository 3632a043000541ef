package shared

// MaxPageSize caps every listing
const MaxPageSize = 100

// DefaultPageSize is used when no limit is requested
const DefaultPageSize = 50

// Page is a 1-based page request
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps page to >= 1 and limit to 1..MaxPageSize
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Window slices rows to the page. total is len(rows).
func Window[T any](rows []T, p Page) []T {
	n := p.Normalize()
	start := (n.Page - 1) * n.Limit
	if start >= len(rows) {
		return []T{}
	}
	end := start + n.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
