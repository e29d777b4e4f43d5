// Package query turns optional product filters, a sort key and page
// coordinates into a deterministic, totally ordered page of products.
// The same Params drive the SQL builder used by the PostgreSQL store and
// the in-memory evaluator used by the memory store.
package query

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/atinyakov/herbcatalog/internal/models"
)

const (
	// DefaultPage is the page returned when none is requested.
	DefaultPage = 1
	// DefaultLimit is the page size used when none is requested.
	DefaultLimit = 10
	// MaxLimit is the largest page size accepted.
	MaxLimit = 100
)

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// ErrInvalidQuery is returned for out-of-range page coordinates.
var ErrInvalidQuery = errors.New("invalid query")

// sortColumns whitelists the sortable columns.
var sortColumns = map[string]struct{}{
	"name":     {},
	"price":    {},
	"category": {},
}

// Params is a product listing request. Nil and empty fields impose no constraint.
type Params struct {
	Keyword   string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Bounds are the accepted page size limits.
type Bounds struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultBounds returns the 10 / 100 page size limits.
func DefaultBounds() Bounds {
	return Bounds{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Validate reports ErrInvalidQuery when page or limit were given out of range.
// Zero values are left for Normalize to default.
func (p Params) Validate(b Bounds) error {
	b = b.orDefault()
	switch {
	case p.Page < 0:
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	case p.Limit < 0 || p.Limit > b.MaxLimit:
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, b.MaxLimit)
	}
	return nil
}

// Normalize applies defaults: page 1, the default limit, limit capped to the
// maximum, unknown sort columns dropped and the sort order lower-cased.
func (p Params) Normalize(b Bounds) Params {
	b = b.orDefault()
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = b.DefaultLimit
	}
	if p.Limit > b.MaxLimit {
		p.Limit = b.MaxLimit
	}
	p.SortBy = strings.ToLower(strings.TrimSpace(p.SortBy))
	if _, ok := sortColumns[p.SortBy]; !ok {
		p.SortBy = ""
	}
	if strings.EqualFold(strings.TrimSpace(p.SortOrder), Desc) {
		p.SortOrder = Desc
	} else {
		p.SortOrder = Asc
	}
	return p
}

// Offset is the number of records skipped before the page. It saturates
// at math.MaxInt instead of overflowing.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// PastEnd reports whether the page starts after the last of total records.
func (p Params) PastEnd(total int) bool {
	if p.Limit < 1 || p.Page <= 1 {
		return false
	}
	return p.Page-1 >= TotalPages(total, p.Limit)
}

// TotalPages returns ceil(total/limit), or 1 for an empty result.
func TotalPages(total, limit int) int {
	if total == 0 || limit < 1 {
		return 1
	}
	return (total + limit - 1) / limit
}

// NewPage assembles the result envelope.
func NewPage(total int, p Params, items []models.Product) *models.Page {
	if items == nil {
		items = []models.Product{}
	}
	return &models.Page{
		TotalItems:  total,
		TotalPages:  TotalPages(total, p.Limit),
		CurrentPage: p.Page,
		Items:       items,
	}
}

// Match reports whether product satisfies every filter in p.
func (p Params) Match(product models.Product) bool {
	if p.Keyword != "" && !containsFold(product.Name, p.Keyword) && !containsFold(product.Category, p.Keyword) {
		return false
	}
	if p.Category != "" && !containsFold(product.Category, p.Category) {
		return false
	}
	if p.MinPrice != nil && product.Price < *p.MinPrice {
		return false
	}
	if p.MaxPrice != nil && product.Price > *p.MaxPrice {
		return false
	}
	return true
}

// Less orders a before b: by the sort column when set, then by ascending id.
func (p Params) Less(a, b models.Product) bool {
	if c := p.compare(a, b); c != 0 {
		if p.SortOrder == Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

func (p Params) compare(a, b models.Product) int {
	switch p.SortBy {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
	}
	return 0
}

// Apply evaluates normalized params over an in-memory collection. It returns
// the filtered count and the requested page.
func Apply(products []models.Product, p Params) (int, []models.Product) {
	filtered := make([]models.Product, 0, len(products))
	for _, pr := range products {
		if p.Match(pr) {
			filtered = append(filtered, pr)
		}
	}
	total := len(filtered)

	sort.SliceStable(filtered, func(i, j int) bool {
		return p.Less(filtered[i], filtered[j])
	})

	if p.PastEnd(total) {
		return total, []models.Product{}
	}
	start := p.Offset()
	if start >= total {
		return total, []models.Product{}
	}
	end := total
	if p.Limit < total-start {
		end = start + p.Limit
	}
	return total, filtered[start:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (b Bounds) orDefault() Bounds {
	if b.MaxLimit < 1 {
		b.MaxLimit = MaxLimit
	}
	if b.DefaultLimit < 1 {
		b.DefaultLimit = DefaultLimit
	}
	if b.DefaultLimit > b.MaxLimit {
		b.DefaultLimit = b.MaxLimit
	}
	return b
}
