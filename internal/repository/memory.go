package repository

import (
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

// MemoryProductRepository keeps products in a B-tree ordered by id. It
// satisfies the same contract as PostgresProductRepository and is used when
// no database is configured.
type MemoryProductRepository struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[models.Product]
	nextID int64
}

// NewMemoryProductRepository returns an empty in-memory product store.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		tree: btree.NewG[models.Product](16, func(a, b models.Product) bool { return a.ID < b.ID }),
	}
}

// Insert stores a copy of p and sets its ID.
func (r *MemoryProductRepository) Insert(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	r.tree.ReplaceOrInsert(stored(*p))
	return nil
}

// GetByID returns a copy of the product with the given id or models.ErrNotFound.
func (r *MemoryProductRepository) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.tree.Get(models.Product{ID: id})
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

// Update replaces the stored product with the same ID.
func (r *MemoryProductRepository) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.tree.Has(*p) {
		return models.ErrNotFound
	}
	r.tree.ReplaceOrInsert(stored(*p))
	return nil
}

// Delete removes the product with the given id.
func (r *MemoryProductRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tree.Delete(models.Product{ID: id}); !ok {
		return models.ErrNotFound
	}
	return nil
}

// List evaluates p over a consistent view of the collection.
func (r *MemoryProductRepository) List(_ context.Context, p query.Params) (*models.Page, error) {
	r.mu.RLock()
	all := make([]models.Product, 0, r.tree.Len())
	r.tree.Ascend(func(item models.Product) bool {
		all = append(all, item)
		return true
	})
	r.mu.RUnlock()

	total, items := query.Apply(all, p)
	return query.NewPage(total, p, items), nil
}

// ImageNames returns the distinct stored names referenced by any product.
func (r *MemoryProductRepository) ImageNames(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	r.tree.Ascend(func(item models.Product) bool {
		if item.Image == "" {
			return true
		}
		if _, ok := seen[item.Image]; !ok {
			seen[item.Image] = struct{}{}
			names = append(names, item.Image)
		}
		return true
	})
	return names, nil
}

// stored drops the derived public path before a product is kept.
func stored(p models.Product) models.Product {
	p.ImagePath = nil
	return p
}

// MemoryAuthRepository keeps users in a map keyed by username.
type MemoryAuthRepository struct {
	mu     sync.RWMutex
	users  map[string]models.User
	nextID int64
}

// NewMemoryAuthRepository returns an empty in-memory user store.
func NewMemoryAuthRepository() *MemoryAuthRepository {
	return &MemoryAuthRepository{users: make(map[string]models.User)}
}

// FindByUsername returns the user with the given username or models.ErrNotFound.
func (s *MemoryAuthRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

// CreateUser inserts u, or returns models.ErrConflict when the username is taken.
func (s *MemoryAuthRepository) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return models.ErrConflict
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.Username] = *u
	return nil
}
