// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Pagination holds pager data for list templates.
type Pagination struct {
	Page       int
	TotalPages int
	Total      int64
	PerPage    int
	PrevPage   int // 0 when on the first page
	NextPage   int // 0 when on the last page
	BaseURL    string
}

// BuildPagination clamps page into range and fills in the neighbour pages.
func BuildPagination(page int, total int64, perPage int, baseURL string) Pagination {
	page, totalPages := NormalizePagination(page, int(total), perPage)

	p := Pagination{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		PerPage:    perPage,
		BaseURL:    baseURL,
	}
	if page > 1 {
		p.PrevPage = page - 1
	}
	if page < totalPages {
		p.NextPage = page + 1
	}
	return p
}

// Offset returns the row offset of the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageURL returns the URL for a specific page number.
func (p Pagination) PageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// ShouldShow returns true if there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// CalculateTotalPages calculates the number of pages for the given total items and items per page.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return totalPages
}

// ClampPage ensures the page number is within the valid range [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// NormalizePagination calculates total pages and clamps the current page to a valid range.
func NormalizePagination(page, totalItems, perPage int) (normalizedPage, totalPages int) {
	totalPages = CalculateTotalPages(totalItems, perPage)
	normalizedPage = ClampPage(page, totalPages)
	return normalizedPage, totalPages
}

// ParsePageParam parses the "page" query parameter from the request.
// Returns 1 if the parameter is missing, empty, or invalid.
func ParsePageParam(r *http.Request) int {
	str := r.URL.Query().Get("page")
	if str == "" {
		return 1
	}
	val, err := strconv.Atoi(str)
	if err != nil || val < 1 {
		return 1
	}
	return val
}

// ParseIDParam parses the {id} URL parameter as a positive int64.
func ParseIDParam(r *http.Request) (int64, error) {
	return parsePositiveID(chi.URLParam(r, "id"))
}

func parsePositiveID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
