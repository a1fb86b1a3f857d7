package models

// PageRequest is a 1-based pagination request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to sane values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes one page of a larger result set.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPageMeta computes the meta block for a total row count,
// with totalPages = ceil(total/limit).
func NewPageMeta(req PageRequest, total int64) PageMeta {
	limit := int64(req.Limit)
	pages := (total + limit - 1) / limit
	return PageMeta{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
