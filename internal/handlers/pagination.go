package handlers

import (
	"net/http"
	"strconv"
)

type pagination struct {
	page     int
	pageSize int
	limit    int
	offset   int
}

// parsePaginationParams reads page and page_size from the query string.
// Invalid values fall back to the first page and defaultSize; page_size is
// capped at maxSize.
func parsePaginationParams(r *http.Request, defaultSize, maxSize int) pagination {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return pagination{
		page:     page,
		pageSize: size,
		limit:    size,
		offset:   (page - 1) * size,
	}
}

type paginatedResponse struct {
	Data       any `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"page_size"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

func writePaginatedResponse(w http.ResponseWriter, status int, data any, page, pageSize, total int) {
	var resp paginatedResponse
	resp.Data = data
	resp.Pagination.Page = page
	resp.Pagination.PageSize = pageSize
	resp.Pagination.Total = total
	if pageSize > 0 {
		resp.Pagination.TotalPages = (total + pageSize - 1) / pageSize
	}
	writeJSON(w, status, resp)
}
