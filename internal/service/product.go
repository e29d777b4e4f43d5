// Package service provides the catalog business logic: product lifecycle
// composed with the upload store, and authentication.
package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

// ProductStore defines the persistence operations needed by the ProductService.
type ProductStore interface {
	// Insert stores a new product and sets its ID.
	Insert(ctx context.Context, p *models.Product) error
	// GetByID returns the product or models.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// Update overwrites all mutable columns of an existing product atomically.
	Update(ctx context.Context, p *models.Product) error
	// Delete removes the product row.
	Delete(ctx context.Context, id int64) error
	// List returns the page described by normalized params.
	List(ctx context.Context, p query.Params) (*models.Page, error)
}

// FileStore defines the upload operations needed by the ProductService.
type FileStore interface {
	// CheckExtension validates the extension of a declared filename.
	CheckExtension(filename string) (string, error)
	// Store persists r under a new random name and returns it.
	Store(r io.Reader, declaredName string) (string, error)
	// Remove deletes a stored file; a missing file is not an error.
	Remove(name string) (bool, error)
}

// ProductService manages products and their image files.
type ProductService struct {
	repo         ProductStore
	files        FileStore
	publicPrefix string
	bounds       query.Bounds
	log          *zap.Logger
}

// NewProductService constructs a ProductService. Image references are exposed
// as publicPrefix + "/" + stored name.
func NewProductService(repo ProductStore, files FileStore, publicPrefix string, bounds query.Bounds, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:         repo,
		files:        files,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		bounds:       bounds,
		log:          log,
	}
}

// Bounds returns the page size limits used by List.
func (s *ProductService) Bounds() query.Bounds {
	return s.bounds
}

// Create validates fields, stores the optional upload and inserts the product.
// When the insert fails after the file was stored, the file is left for the
// orphan reclaimer.
func (s *ProductService) Create(ctx context.Context, fields models.ProductFields, upload *models.Upload) (*models.Product, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	p := &models.Product{Name: fields.Name, Category: fields.Category, Price: fields.Price}
	if upload != nil {
		name, err := s.files.Store(bytes.NewReader(upload.Data), upload.Filename)
		if err != nil {
			return nil, err
		}
		p.Image = name
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		if p.Image != "" {
			s.log.Warn("product insert failed, upload left for reclaim",
				zap.String("image", p.Image), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("product created", zap.Int64("id", p.ID), zap.String("image", p.Image))
	return s.project(p), nil
}

// Get returns the product with the given id.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.project(p), nil
}

// List validates and normalizes params and returns the requested page.
func (s *ProductService) List(ctx context.Context, params query.Params) (*models.Page, error) {
	if err := params.Validate(s.bounds); err != nil {
		return nil, err
	}
	page, err := s.repo.List(ctx, params.Normalize(s.bounds))
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		s.project(&page.Items[i])
	}
	return page, nil
}

// Update overwrites name, category and price. When upload is set, the old
// image file is removed before the new one is stored, and the new stored
// name replaces the image reference; otherwise the reference is untouched.
func (s *ProductService) Update(ctx context.Context, id int64, fields models.ProductFields, upload *models.Upload) (*models.Product, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upload != nil {
		if _, err := s.files.CheckExtension(upload.Filename); err != nil {
			return nil, err
		}
		if p.Image != "" {
			removed, err := s.files.Remove(p.Image)
			if err != nil {
				return nil, err
			}
			s.log.Debug("previous image removed", zap.String("image", p.Image), zap.Bool("existed", removed))
		}
		name, err := s.files.Store(bytes.NewReader(upload.Data), upload.Filename)
		if err != nil {
			return nil, err
		}
		p.Image = name
	}

	p.Name = fields.Name
	p.Category = fields.Category
	p.Price = fields.Price

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product updated", zap.Int64("id", p.ID), zap.String("image", p.Image))
	return s.project(p), nil
}

// Delete removes the product row only. Its image file stays on disk until
// the next reclaim sweep.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("id", id))
	return nil
}

// PublicPath returns the client visible path of a stored file.
func (s *ProductService) PublicPath(name string) string {
	return s.publicPrefix + "/" + name
}

func (s *ProductService) project(p *models.Product) *models.Product {
	p.ImagePath = nil
	if p.Image != "" {
		path := s.PublicPath(p.Image)
		p.ImagePath = &path
	}
	return p
}
