package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

// DefaultMaxUploadBytes caps multipart request bodies when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 1 << 20

// updateFields lists the only form fields PUT accepts.
var updateFields = map[string]bool{"name": true, "category": true, "price": true}

// ProductService defines the product operations required by the ProductHandler.
type ProductService interface {
	Create(ctx context.Context, fields models.ProductFields, upload *models.Upload) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, params query.Params) (*models.Page, error)
	Update(ctx context.Context, id int64, fields models.ProductFields, upload *models.Upload) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	ProductService ProductService
	// MaxUploadBytes limits the size of create and update request bodies.
	MaxUploadBytes int64
	Log            *zap.Logger
}

// List handles GET /products/ with the filter, sort and paging query parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	page, err := h.ProductService.List(r.Context(), params)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	p, err := h.ProductService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /products/ with a multipart body holding name,
// category, price and an optional file.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, upload, err := h.parseProductForm(w, r, false)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	p, err := h.ProductService.Create(r.Context(), fields, upload)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /products/{id}. All of name, category and price are
// overwritten; fields other than those and file are rejected.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	fields, upload, err := h.parseProductForm(w, r, true)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	p, err := h.ProductService.Update(r.Context(), id, fields, upload)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.ProductService.Delete(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Product deleted",
	})
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid product id")
	}
	return id, nil
}

func parseListParams(v url.Values) (query.Params, error) {
	p := query.Params{
		Keyword:   v.Get("keyword"),
		Category:  v.Get("category"),
		SortBy:    v.Get("sort_by"),
		SortOrder: v.Get("sort_order"),
	}

	var err error
	if p.MinPrice, err = optionalFloat(v, "min_price"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = optionalFloat(v, "max_price"); err != nil {
		return p, err
	}
	if p.Page, err = optionalPositive(v, "page"); err != nil {
		return p, err
	}
	if p.Limit, err = optionalPositive(v, "limit"); err != nil {
		return p, err
	}
	return p, nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	raw := v.Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, badRequest("%s must be a number", key)
	}
	return &f, nil
}

// optionalPositive returns 0 for an absent value, leaving the default to the query engine.
// Values are always decimal, so "010" is ten.
func optionalPositive(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest("%s must be a positive integer", key)
	}
	return n, nil
}

// parseProductForm reads the multipart body of a create or update request.
// With strict set, unknown fields are rejected.
func (h *ProductHandler) parseProductForm(w http.ResponseWriter, r *http.Request, strict bool) (models.ProductFields, *models.Upload, error) {
	var fields models.ProductFields

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if r.ContentLength > limit {
		return fields, nil, errTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fields, nil, errTooLarge
		}
		return fields, nil, badRequest("expected a multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := r.MultipartForm
	if strict {
		for key := range form.Value {
			if !updateFields[key] {
				return fields, nil, badRequest("unknown field %q", key)
			}
		}
		for key := range form.File {
			if key != "file" {
				return fields, nil, badRequest("unknown field %q", key)
			}
		}
	}

	fields.Name = r.PostFormValue("name")
	fields.Category = r.PostFormValue("category")
	rawPrice := r.PostFormValue("price")
	if rawPrice == "" {
		return fields, nil, badRequest("price is required")
	}
	price, err := cast.ToFloat64E(rawPrice)
	if err != nil {
		return fields, nil, badRequest("price must be a number")
	}
	fields.Price = price

	files := form.File["file"]
	if len(files) == 0 {
		return fields, nil, nil
	}
	if len(files) > 1 {
		return fields, nil, badRequest("only one file may be uploaded")
	}

	f, err := files[0].Open()
	if err != nil {
		return fields, nil, badRequest("unreadable file")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return fields, nil, badRequest("unreadable file")
	}
	return fields, &models.Upload{Filename: files[0].Filename, Data: data}, nil
}
