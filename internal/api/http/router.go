// Package http exposes the admin API and the public redirect surface.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/na3work/shortlink/docs"
	"github.com/na3work/shortlink/internal/auth"
	"github.com/na3work/shortlink/internal/config"
	"github.com/na3work/shortlink/internal/models"
	"github.com/na3work/shortlink/internal/service"
)

// LinkService defines the slug registry and redirector operations the API
// depends on. The owner argument always carries the verified identity; it is
// never inferred inside the service.
type LinkService interface {
	// Create validates and stores a new short link for the owner.
	Create(ctx context.Context, owner string, params service.CreateParams) (*models.ShortLink, error)

	// Get returns the owner's record for the slug.
	Get(ctx context.Context, owner, slug string) (*models.ShortLink, error)

	// List returns all of the owner's records, newest first.
	List(ctx context.Context, owner string) ([]*models.ShortLink, error)

	// Update merges the provided fields into the owner's record.
	Update(ctx context.Context, owner, slug string, params service.UpdateParams) (*models.ShortLink, error)

	// Delete removes the owner's record for the slug.
	Delete(ctx context.Context, owner, slug string) error

	// Resolve returns the record for a redirect and schedules the access count update.
	Resolve(ctx context.Context, owner, slug string) (*models.ShortLink, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns the HTTP router with all routes and
// middleware configured.
func NewRouter(logger *httplog.Logger, cfg *config.Config, svc LinkService, verifier auth.Verifier) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Route("/api/urls", func(r chi.Router) {
		validate := getValidate()

		// Credentials are checked before anything else looks at the request.
		r.Use(withAuth(verifier))
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/", handleListURLs(svc, cfg.BaseURL))
		r.Post("/", handleCreateURL(svc, validate, cfg.BaseURL))

		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", handleGetURL(svc, cfg.BaseURL))
			r.Put("/", handleUpdateURL(svc, cfg.BaseURL))
			r.Delete("/", handleDeleteURL(svc))
		})
	})

	// Visitor-facing short links; must not shadow the routes above.
	r.Get("/{owner}/{slug}", handleRedirect(svc))

	return r
}
