package pagination

import (
	"net/http"
	"strconv"
)

// PageSize is the fixed number of rows on one admin page.
const PageSize = 10

type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewParams clamps page to at least 1.
func NewParams(page int) Params {
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: PageSize, Offset: (page - 1) * PageSize}
}

// FromRequest reads ?page= and falls back to the first page.
func FromRequest(r *http.Request) Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return NewParams(page)
}

func GetMeta(params Params, total int) Meta {
	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// Bounds returns the [start, end) slice indexes of the page within total
// rows. A page past the end yields an empty range.
func Bounds(params Params, total int) (int, int) {
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return start, end
}
