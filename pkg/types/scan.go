package types

import (
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultScanSize = 10

// ScanRequest is the admin list request shared by every scan endpoint.
type ScanRequest struct {
	Filters   []*CommonFilter `json:"filters"`
	From      int             `json:"from"`
	Size      int             `json:"size"`
	SortBy    string          `json:"sort_by"`
	SortOrder string          `json:"sort_order"`
}

// Normalize applies paging defaults and checks filters and sort column
// against allowed.
func (r *ScanRequest) Normalize(allowed []string) error {
	if r.Size <= 0 {
		r.Size = defaultScanSize
	}
	if r.From < 0 {
		r.From = 0
	}
	if r.SortBy != "" && !slices.Contains(allowed, r.SortBy) {
		return fmt.Errorf("sort field not allowed: %s", r.SortBy)
	}
	return ValidateFilters(r.Filters, allowed)
}

// Where narrows tx to the request filters.
func (r *ScanRequest) Where(tx *gorm.DB) *gorm.DB {
	if len(r.Filters) == 0 {
		return tx
	}
	return tx.Where(clause.Where{Exprs: []clause.Expression{FiltersAnd(r.Filters)}})
}

// Page applies limit, offset and ordering. Sorting defaults to newest first.
func (r *ScanRequest) Page(tx *gorm.DB) *gorm.DB {
	q := tx.Limit(r.Size)
	if r.From > 0 {
		q = q.Offset(r.From)
	}
	sortBy := r.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	return q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: r.SortOrder != "asc"}}})
}
