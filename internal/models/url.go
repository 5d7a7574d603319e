package models

import "time"

// ShortLink represents a short link record and its associated metadata.
// Records are persisted as JSON under an owner-scoped key in the record store.
type ShortLink struct {
	// OriginalURL is the destination the short link redirects to.
	OriginalURL string `json:"originalUrl"`
	// Slug is the owner-chosen path segment identifying the link. Immutable after creation.
	Slug string `json:"slug"`
	// Owner is the identifier of the user the link belongs to. Immutable after creation.
	Owner string `json:"owner"`
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time `json:"createdAt"`
	// LastAccessed is the timestamp of the most recent redirect, if any.
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	// AccessCount tracks the number of times the short link has been followed.
	AccessCount int64 `json:"accessCount"`
	// Description is optional free text attached by the owner.
	Description string `json:"description,omitempty"`
}
