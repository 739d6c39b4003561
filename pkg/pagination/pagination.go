// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination turns "?page=&limit=" query strings into LIMIT/OFFSET
// windows and describes the window back to the client in the list envelope.
package pagination

import (
	"net/http"
	"strconv"
)

// # Window Bounds

const (
	DefaultPage  = 1
	DefaultLimit = 20

	// MaxLimit caps a single page; a comparison row carries a report and two
	// clip descriptors, so larger pages are never useful to the dashboard.
	MaxLimit = 100
)

const (
	queryPage  = "page"
	queryLimit = "limit"
)

// Params is a 1-indexed page window.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the window starts.
func (params Params) Offset() int {
	if params.Page <= DefaultPage {
		return 0
	}
	return (params.Page - 1) * params.Limit
}

// Meta describes the window that was served.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

/*
NewMeta derives the page count for a window over total rows.

Parameters:
  - page: int (1-indexed)
  - limit: int
  - total: int (rows matching the query, ignoring the window)

Returns:
  - Meta
*/
func NewMeta(page, limit, total int) Meta {
	var pages int
	if limit > 0 && total > 0 {
		pages = (total-1)/limit + 1
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasMore:    page < pages,
	}
}

/*
FromRequest reads the window from the query string.

Unparseable or non-positive values fall back to the defaults and an oversized
limit is clamped to [MaxLimit].

Parameters:
  - request: *http.Request

Returns:
  - Params
*/
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()

	params := Params{
		Page:  positiveOr(query.Get(queryPage), DefaultPage),
		Limit: positiveOr(query.Get(queryLimit), DefaultLimit),
	}

	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}

	return params
}

func positiveOr(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
