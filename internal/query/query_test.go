package query

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/herbcatalog/internal/models"
)

func price(v float64) *float64 { return &v }

func catalog() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Tamarind", Category: "Drinks", Price: 15000},
		{ID: 2, Name: "Ginger Tea", Category: "Drinks", Price: 12000},
		{ID: 3, Name: "Turmeric Powder", Category: "Spices", Price: 8000},
		{ID: 4, Name: "Kencur", Category: "Roots", Price: 8000},
		{ID: 5, Name: "Herbal Drink Mix", Category: "Traditional Drinks", Price: 30000},
		{ID: 6, Name: "Betel Leaf", Category: "Leaves", Price: 5000},
		{ID: 7, Name: "100% Pure", Category: "Oils", Price: 45000},
	}
}

func ids(products []models.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 3, TotalPages(23, 10))
	assert.Equal(t, 2, TotalPages(20, 10))
	assert.Equal(t, 1, TotalPages(1, 100))
	assert.Equal(t, 23, TotalPages(23, 1))
}

func TestNormalize(t *testing.T) {
	p := Params{SortBy: "Price", SortOrder: "DESC"}.Normalize(DefaultBounds())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "price", p.SortBy)
	assert.Equal(t, Desc, p.SortOrder)

	p = Params{SortBy: "id; DROP TABLE products", SortOrder: "sideways", Limit: 500}.Normalize(DefaultBounds())
	assert.Empty(t, p.SortBy, "unknown sort column is ignored")
	assert.Equal(t, Asc, p.SortOrder)
	assert.Equal(t, 100, p.Limit)

	p = Params{}.Normalize(Bounds{DefaultLimit: 20, MaxLimit: 50})
	assert.Equal(t, 20, p.Limit)

	p = Params{Keyword: " tea ", Category: "Drinks "}.Normalize(DefaultBounds())
	assert.Equal(t, " tea ", p.Keyword, "keyword is matched as sent")
	assert.Equal(t, "Drinks ", p.Category)
}

func TestApply_KeywordWhitespaceIsSignificant(t *testing.T) {
	_, items := Apply(catalog(), Params{Keyword: " tea"}.Normalize(DefaultBounds()))
	assert.Equal(t, []int64{2}, ids(items))

	total, items := Apply(catalog(), Params{Keyword: "tea "}.Normalize(DefaultBounds()))
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestValidate(t *testing.T) {
	b := DefaultBounds()
	assert.NoError(t, Params{}.Validate(b))
	assert.NoError(t, Params{Page: 3, Limit: 100}.Validate(b))
	assert.ErrorIs(t, Params{Page: -1}.Validate(b), ErrInvalidQuery)
	assert.ErrorIs(t, Params{Limit: 101}.Validate(b), ErrInvalidQuery)
	assert.ErrorIs(t, Params{Limit: -5}.Validate(b), ErrInvalidQuery)
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []int64
	}{
		{name: "no filters", p: Params{}, want: []int64{1, 2, 3, 4, 5, 6, 7}},
		{name: "keyword matches name or category", p: Params{Keyword: "drink"}, want: []int64{1, 2, 5}},
		{name: "keyword case insensitive", p: Params{Keyword: "TURMERIC"}, want: []int64{3}},
		{name: "category substring", p: Params{Category: "drinks"}, want: []int64{1, 2, 5}},
		{name: "min price inclusive", p: Params{MinPrice: price(15000)}, want: []int64{1, 5, 7}},
		{name: "max price inclusive", p: Params{MaxPrice: price(8000)}, want: []int64{3, 4, 6}},
		{name: "combined", p: Params{Keyword: "drink", MinPrice: price(13000), MaxPrice: price(20000)}, want: []int64{1}},
		{name: "percent is literal", p: Params{Keyword: "%"}, want: []int64{7}},
		{name: "no match", p: Params{Category: "Minerals"}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p.Limit = 100
			total, items := Apply(catalog(), p.Normalize(DefaultBounds()))
			assert.Equal(t, len(tt.want), total)
			assert.Equal(t, tt.want, ids(items))
		})
	}
}

func TestApply_Sorting(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []int64
	}{
		{name: "default is id order", p: Params{}, want: []int64{1, 2, 3, 4, 5, 6, 7}},
		{name: "price asc ties by id", p: Params{SortBy: "price"}, want: []int64{6, 3, 4, 2, 1, 5, 7}},
		{name: "price desc ties by id", p: Params{SortBy: "price", SortOrder: "desc"}, want: []int64{7, 5, 1, 2, 3, 4, 6}},
		{name: "name asc", p: Params{SortBy: "name"}, want: []int64{7, 6, 2, 5, 4, 1, 3}},
		{name: "category desc", p: Params{SortBy: "category", SortOrder: "desc"}, want: []int64{5, 3, 4, 7, 6, 1, 2}},
		{name: "unknown column ignored", p: Params{SortBy: "stock", SortOrder: "desc"}, want: []int64{1, 2, 3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, items := Apply(catalog(), tt.p.Normalize(DefaultBounds()))
			assert.Equal(t, tt.want, ids(items))
		})
	}
}

func TestApply_PagesConcatenateToFullSet(t *testing.T) {
	var products []models.Product
	for i := 1; i <= 23; i++ {
		products = append(products, models.Product{
			ID:       int64(i),
			Name:     fmt.Sprintf("item-%02d", 24-i),
			Category: "Drinks",
			Price:    float64(i % 5),
		})
	}

	for _, sortBy := range []string{"", "name", "price"} {
		for _, limit := range []int{1, 3, 10, 23, 100} {
			t.Run(fmt.Sprintf("%s/%d", sortBy, limit), func(t *testing.T) {
				base := Params{SortBy: sortBy, Limit: limit}.Normalize(DefaultBounds())
				total, all := Apply(products, Params{SortBy: sortBy, Limit: 100}.Normalize(DefaultBounds()))
				require.Equal(t, 23, total)

				var joined []models.Product
				pages := TotalPages(total, base.Limit)
				for page := 1; page <= pages; page++ {
					p := base
					p.Page = page
					n, items := Apply(products, p)
					require.Equal(t, total, n, "total is independent of page")
					require.LessOrEqual(t, len(items), limit)
					joined = append(joined, items...)
				}
				assert.Equal(t, ids(all), ids(joined))
			})
		}
	}
}

func TestApply_PageBeyondLast(t *testing.T) {
	p := Params{Page: 5, Limit: 10}.Normalize(DefaultBounds())
	total, items := Apply(catalog(), p)
	assert.Equal(t, 7, total)
	assert.Empty(t, items)

	page := NewPage(total, p, items)
	assert.Equal(t, 7, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 5, page.CurrentPage)
	assert.NotNil(t, page.Items)
}

func TestApply_HugePage(t *testing.T) {
	p := Params{Page: math.MaxInt64 / 5, Limit: 10}.Normalize(DefaultBounds())
	require.NotPanics(t, func() {
		total, items := Apply(catalog(), p)
		assert.Equal(t, 7, total)
		assert.Empty(t, items)
	})
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want int
	}{
		{name: "first page", p: Params{Page: 1, Limit: 10}, want: 0},
		{name: "third page", p: Params{Page: 3, Limit: 10}, want: 20},
		{name: "unset page", p: Params{Limit: 10}, want: 0},
		{name: "unset limit", p: Params{Page: 4}, want: 0},
		{name: "saturates", p: Params{Page: math.MaxInt64 / 5, Limit: 10}, want: math.MaxInt},
		{name: "largest page", p: Params{Page: math.MaxInt, Limit: 100}, want: math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Offset())
		})
	}
}

func TestPastEnd(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		total int
		want  bool
	}{
		{name: "first page of empty catalog", p: Params{Page: 1, Limit: 10}, total: 0, want: false},
		{name: "second page of empty catalog", p: Params{Page: 2, Limit: 10}, total: 0, want: true},
		{name: "last page", p: Params{Page: 3, Limit: 10}, total: 21, want: false},
		{name: "one after last", p: Params{Page: 4, Limit: 10}, total: 30, want: true},
		{name: "exact boundary", p: Params{Page: 3, Limit: 10}, total: 30, want: false},
		{name: "huge page", p: Params{Page: math.MaxInt64 / 5, Limit: 10}, total: 7, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.PastEnd(tt.total))
		})
	}
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage(0, Params{}.Normalize(DefaultBounds()), nil)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, []models.Product{}, page.Items)
}
