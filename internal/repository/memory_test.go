package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

func TestMemoryProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	p := &models.Product{Name: "Tamarind", Category: "Drinks", Price: 15000}
	require.NoError(t, repo.Insert(ctx, p))
	assert.Equal(t, int64(1), p.ID)

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)

	// returned values are copies
	got.Name = "changed"
	again, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Tamarind", again.Name)

	p.Price = 16000
	p.Image = "x.png"
	require.NoError(t, repo.Update(ctx, p))
	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 16000.0, got.Price)
	assert.Equal(t, "x.png", got.Image)

	assert.ErrorIs(t, repo.Update(ctx, &models.Product{ID: 9}), models.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), models.ErrNotFound)

	// ids are never reused
	next := &models.Product{Name: "Kencur", Category: "Roots", Price: 1}
	require.NoError(t, repo.Insert(ctx, next))
	assert.Equal(t, int64(2), next.ID)
}

func TestMemoryProductRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()
	for _, p := range []models.Product{
		{Name: "Tamarind", Category: "Drinks", Price: 15000},
		{Name: "Ginger Tea", Category: "Drinks", Price: 12000},
		{Name: "Kencur", Category: "Roots", Price: 8000},
	} {
		p := p
		require.NoError(t, repo.Insert(ctx, &p))
	}

	page, err := repo.List(ctx, query.Params{Category: "drinks", SortBy: "price", Limit: 1, Page: 2}.Normalize(query.DefaultBounds()))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Tamarind", page.Items[0].Name)
}

func TestMemoryProductRepository_ListHugePage(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()
	p := models.Product{Name: "Tamarind", Category: "Drinks", Price: 15000}
	require.NoError(t, repo.Insert(ctx, &p))

	page, err := repo.List(ctx, query.Params{Page: math.MaxInt64 / 5, Limit: 10}.Normalize(query.DefaultBounds()))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
	assert.Equal(t, math.MaxInt64/5, page.CurrentPage)
	assert.Empty(t, page.Items)
}

func TestMemoryProductRepository_ImageNames(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()
	for _, img := range []string{"a.jpg", "", "b.png", "a.jpg"} {
		require.NoError(t, repo.Insert(ctx, &models.Product{Name: "n", Category: "c", Image: img}))
	}

	names, err := repo.ImageNames(ctx)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"a.jpg", "b.png"}, names)
}

func TestMemoryProductRepository_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Insert(ctx, &models.Product{Name: "n", Category: "c"})
		}()
	}
	wg.Wait()

	page, err := repo.List(ctx, query.Params{Limit: 100}.Normalize(query.DefaultBounds()))
	require.NoError(t, err)
	assert.Equal(t, 50, page.TotalItems)
	for i, p := range page.Items {
		assert.Equal(t, int64(i+1), p.ID)
	}
}

func TestMemoryAuthRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuthRepository()

	u := &models.User{Username: "admin", PasswordHash: "h", IsAdmin: true}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	assert.ErrorIs(t, repo.CreateUser(ctx, &models.User{Username: "admin"}), models.ErrConflict)

	got, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
