package http

import (
	"net/http"
	"time"

	"github.com/na3work/shortlink/internal/models"
)

type createURLRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
	// An empty slug asks the server to generate one.
	Slug        string `json:"slug" validate:"omitempty,max=50"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type updateURLRequest struct {
	OriginalURL *string `json:"originalUrl"`
	Description *string `json:"description"`
}

// urlResponse is the public view of a record. The owner id is not exposed
// directly; it is only visible as a path segment of the computed short URL.
type urlResponse struct {
	ShortURL    string    `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"createdAt"`
	AccessCount int64     `json:"accessCount"`
	Description string    `json:"description,omitempty"`
}

type listURLsResponse struct {
	URLs  []urlResponse `json:"urls"`
	Total int           `json:"total"`
}

func toURLResponse(origin string, link *models.ShortLink) urlResponse {
	return urlResponse{
		ShortURL:    origin + "/" + link.Owner + "/" + link.Slug,
		OriginalURL: link.OriginalURL,
		Slug:        link.Slug,
		CreatedAt:   link.CreatedAt,
		AccessCount: link.AccessCount,
		Description: link.Description,
	}
}

// requestOrigin derives the short URL origin from the incoming request.
// baseURL, when configured, takes precedence.
func requestOrigin(r *http.Request, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}
