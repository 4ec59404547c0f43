package models

import (
	"math"
	"slices"
	"strings"

	"github.com/Temutjin2k/authhub/pkg/validator"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filters carries client-supplied pagination and sorting. SortSafelist holds
// the accepted sort keys; a leading "-" means descending.
type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// NewFilters applies defaults for zero values. The first safelist entry is
// the default sort.
func NewFilters(page, pageSize int, sort string, sortSafelist []string) Filters {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if sort == "" && len(sortSafelist) > 0 {
		sort = sortSafelist[0]
	}
	return Filters{
		Page:         page,
		PageSize:     pageSize,
		Sort:         sort,
		SortSafelist: sortSafelist,
	}
}

func (f Filters) Validate(v *validator.Validator) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= MaxPageSize, "page_size", "must be a maximum of 100")
	if len(f.SortSafelist) > 0 {
		v.Check(validator.PermittedValue(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
	}
}

// SortColumn returns the column to sort by. Values outside the safelist fall
// back to the first safelist entry, and to "created_at" without a safelist.
func (f Filters) SortColumn() string {
	if slices.Contains(f.SortSafelist, f.Sort) {
		return strings.TrimPrefix(f.Sort, "-")
	}
	if len(f.SortSafelist) > 0 {
		return strings.TrimPrefix(f.SortSafelist[0], "-")
	}
	return "created_at"
}

func (f Filters) SortDirection() string {
	sort := f.Sort
	if !slices.Contains(f.SortSafelist, sort) && len(f.SortSafelist) > 0 {
		sort = f.SortSafelist[0]
	}
	if strings.HasPrefix(sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return min(f.PageSize, MaxPageSize)
}

func (f Filters) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

// CalculateMetadata derives pagination metadata. With 12 records and a page
// size of 5 the last page is 3. An empty result has first and last page 0.
func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{
			CurrentPage: page,
			PageSize:    pageSize,
		}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

// Page is one page of a list query.
type Page[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"metadata"`
}

func NewPage[T any](items []T, total int, f Filters) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Metadata: CalculateMetadata(total, f.Page, f.Limit()),
	}
}
