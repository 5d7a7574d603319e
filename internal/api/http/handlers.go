package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/na3work/shortlink/internal/auth"
	"github.com/na3work/shortlink/internal/service"
	"github.com/na3work/shortlink/pkg/response"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func handleListURLs(svc LinkService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleListURLs"

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthenticationFailedResponse)
			return
		}

		links, err := svc.List(r.Context(), user.ID)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.InternalErrorResponse)
			return
		}

		origin := requestOrigin(r, baseURL)
		resp := listURLsResponse{
			URLs:  make([]urlResponse, 0, len(links)),
			Total: len(links),
		}
		for _, link := range links {
			resp.URLs = append(resp.URLs, toURLResponse(origin, link))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
	}
}

func handleCreateURL(svc LinkService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleCreateURL"

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthenticationFailedResponse)
			return
		}

		var req createURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidURLResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, validationFailureResponse(err))
			return
		}

		link, err := svc.Create(r.Context(), user.ID, service.CreateParams{
			OriginalURL: req.OriginalURL,
			Slug:        req.Slug,
			Description: req.Description,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, service.ErrInvalidSlug):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidSlugResponse)
			case errors.Is(err, service.ErrSlugExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.SlugExistsResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.InternalErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, toURLResponse(requestOrigin(r, baseURL), link))
	}
}

// validationFailureResponse picks the wire kind for a rejected request body.
// Slug failures carry their own kind; clients match on it.
func validationFailureResponse(err error) response.Error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "slug" {
				return response.InvalidSlugResponse
			}
		}
	}
	return response.InvalidURLResponse
}

func handleGetURL(svc LinkService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleGetURL"

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthenticationFailedResponse)
			return
		}

		slug := chi.URLParam(r, "slug")

		link, err := svc.Get(r.Context(), user.ID, slug)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
			case errors.Is(err, service.ErrAccessDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.AccessDeniedResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.InternalErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toURLResponse(requestOrigin(r, baseURL), link))
	}
}

func handleUpdateURL(svc LinkService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleUpdateURL"

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthenticationFailedResponse)
			return
		}

		var req updateURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidURLResponse)
			return
		}

		slug := chi.URLParam(r, "slug")

		link, err := svc.Update(r.Context(), user.ID, slug, service.UpdateParams{
			OriginalURL: req.OriginalURL,
			Description: req.Description,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, service.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
			case errors.Is(err, service.ErrAccessDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.AccessDeniedResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.InternalErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toURLResponse(requestOrigin(r, baseURL), link))
	}
}

func handleDeleteURL(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleDeleteURL"

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthenticationFailedResponse)
			return
		}

		slug := chi.URLParam(r, "slug")

		if err := svc.Delete(r.Context(), user.ID, slug); err != nil {
			switch {
			case errors.Is(err, service.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
			case errors.Is(err, service.ErrAccessDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.AccessDeniedResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.InternalErrorResponse)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// handleRedirect serves visitor traffic; it is unauthenticated and responds
// with plain text on failure since the caller is a browser, not the admin
// client.
func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		slug := chi.URLParam(r, "slug")

		link, err := svc.Resolve(r.Context(), owner, slug)
		if err != nil {
			if errors.Is(err, service.ErrURLNotFound) || errors.Is(err, service.ErrAccessDenied) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintln(w, "short URL not found")
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintln(w, "internal server error")
			return
		}

		http.Redirect(w, r, link.OriginalURL, http.StatusFound)
	}
}
