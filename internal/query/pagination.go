package query

import (
	"net/url"
	"strconv"

	"finanzas/internal/core"
)

// PageParams are the validated 1-indexed pagination inputs.
type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams reads page/page_size with the documented defaults (1, 10).
// Zero or negative values are rejected up front, before any query runs.
func ParsePageParams(values url.Values) (PageParams, error) {
	params := PageParams{Page: 1, PageSize: 10}
	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageParams{}, core.ErrInvalidPagination()
		}
		params.Page = n
	}
	if v := values.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageParams{}, core.ErrInvalidPagination()
		}
		params.PageSize = n
	}
	if params.Page <= 0 || params.PageSize <= 0 {
		return PageParams{}, core.ErrInvalidPagination()
	}
	return params, nil
}

// Paginate slices a materialized item sequence into the requested page and
// wraps it in the standard envelope. total_pages is ceil(n/size) floored at
// one even for an empty sequence; next_page is present only when at least one
// item lies beyond the current page.
func Paginate[T any](params PageParams, items []T, contentsName string, additionalInfo map[string]string) (map[string]any, error) {
	if params.Page <= 0 || params.PageSize <= 0 {
		return nil, core.ErrInvalidPagination()
	}

	total := len(items)
	start := (params.Page - 1) * params.PageSize
	end := start + params.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	var nextPage *int
	if end < total {
		n := params.Page + 1
		nextPage = &n
	}

	if additionalInfo == nil {
		additionalInfo = map[string]string{}
	}

	return map[string]any{
		"total_entries":   total,
		"total_pages":     totalPages,
		"page":            params.Page,
		"page_size":       params.PageSize,
		"next_page":       nextPage,
		"additional_info": additionalInfo,
		contentsName:      items[start:end],
	}, nil
}
