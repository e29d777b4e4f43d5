package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Reclaim  *ReclaimHandler
	Uploads  *UploadsHandler
}

// NewRouter constructs and returns an HTTP handler that serves
// the catalog API.
//
// Routes:
//
//	GET    /                 → welcome message
//	POST   /token            → Auth.Token
//	GET    /products/        → Products.List
//	GET    /products/{id}    → Products.Get
//	POST   /products/        → Products.Create (admin)
//	PUT    /products/{id}    → Products.Update (admin)
//	DELETE /products/{id}    → Products.Delete (admin)
//	POST   /admin/reclaim    → Reclaim.Reclaim (admin)
//	GET    {prefix}/{name}   → Uploads.Serve
func NewRouter(h Handlers, tokens middleware.TokenValidator, publicPrefix string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType(
		"application/json",
		"application/x-www-form-urlencoded",
		"multipart/form-data",
	))

	admin := func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))
		r.Use(middleware.RequireAdmin)
	}

	r.Get("/", Welcome)
	r.Post("/token", h.Auth.Token)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Products.List)
		r.Get("/{id}", h.Products.Get)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/", h.Products.Create)
			r.Put("/{id}", h.Products.Update)
			r.Delete("/{id}", h.Products.Delete)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		admin(r)
		r.Post("/reclaim", h.Reclaim.Reclaim)
	})

	prefix := strings.TrimRight(publicPrefix, "/")
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	r.Get(strings.TrimRight(prefix, "/")+"/{name}", h.Uploads.Serve)

	return r
}

// Welcome handles GET /.
func Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Herbal Catalog API"})
}
