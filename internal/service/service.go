// Package service implements the slug registry and the redirector: owner-scoped
// CRUD over short link records plus redirect resolution with asynchronous
// access counting.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/na3work/shortlink/internal/models"
	"github.com/na3work/shortlink/internal/storage"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrInvalidURL is returned when a destination does not parse as an absolute URL.
	ErrInvalidURL = errors.New("invalid destination url")
	// ErrInvalidSlug is returned when a slug fails the character or length rules.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrSlugExists is returned when the owner already has a record under the slug.
	ErrSlugExists = errors.New("slug already exists")
	// ErrURLNotFound is returned when no record exists for the owner and slug.
	ErrURLNotFound = errors.New("url not found")
	// ErrAccessDenied is returned when a stored record belongs to a different owner.
	ErrAccessDenied = errors.New("access denied")
	// ErrMaxRetriesExceeded is returned when slug generation keeps colliding.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating slug")
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const (
	maxSlugLength = 50

	// Matches the slug generator the admin client ships.
	slugAlphabet        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	generatedSlugLength = 6
	maxGenerateRetries  = 5

	accessWriteTimeout = 5 * time.Second
)

// CreateParams carries the fields of a create request. An empty Slug asks the
// service to generate one.
type CreateParams struct {
	OriginalURL string
	Slug        string
	Description string
}

// UpdateParams carries the fields of an update request. Nil fields are left
// unchanged on the record.
type UpdateParams struct {
	OriginalURL *string
	Description *string
}

// LinkService manages short link records. Every method takes the verified
// owner id explicitly; ownership is enforced by key scoping and never
// re-derived inside the service.
type LinkService struct {
	store  storage.Store
	logger *slog.Logger

	// Tracks in-flight access-count writes so shutdown and tests can drain them.
	pending sync.WaitGroup
}

// NewLinkService creates a LinkService backed by the given record store.
func NewLinkService(store storage.Store, logger *slog.Logger) *LinkService {
	return &LinkService{
		store:  store,
		logger: logger,
	}
}

// Create validates and persists a new short link record for the owner.
// Uniqueness is enforced with a conditional write, so two concurrent creates
// with the same slug cannot overwrite each other.
func (s *LinkService) Create(ctx context.Context, owner string, params CreateParams) (*models.ShortLink, error) {
	const op = "service.LinkService.Create"

	if !isAbsoluteURL(params.OriginalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	generated := params.Slug == ""
	if !generated && !isValidSlug(params.Slug) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSlug)
	}

	for i := 0; i < maxGenerateRetries; i++ {
		slug := params.Slug
		if generated {
			var err error
			slug, err = gonanoid.Generate(slugAlphabet, generatedSlugLength)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to generate slug: %w", op, err)
			}
		}

		link := &models.ShortLink{
			OriginalURL: params.OriginalURL,
			Slug:        slug,
			Owner:       owner,
			CreatedAt:   time.Now().UTC(),
			AccessCount: 0,
			Description: params.Description,
		}

		data, err := json.Marshal(link)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode record: %w", op, err)
		}

		ok, err := s.store.PutIfAbsent(ctx, storage.RecordKey(owner, slug), data)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to store record: %w", op, err)
		}
		if !ok {
			if generated {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, ErrSlugExists)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// Get returns the owner's record for the slug.
func (s *LinkService) Get(ctx context.Context, owner, slug string) (*models.ShortLink, error) {
	const op = "service.LinkService.Get"

	link, err := s.load(ctx, owner, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

// List returns all of the owner's records, newest first.
func (s *LinkService) List(ctx context.Context, owner string) ([]*models.ShortLink, error) {
	const op = "service.LinkService.List"

	keys, err := s.store.Keys(ctx, storage.OwnerPrefix(owner))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list keys: %w", op, err)
	}

	links := make([]*models.ShortLink, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if err != nil {
			// The record may have been deleted between the scan and the read.
			if errors.Is(err, storage.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s: failed to read record: %w", op, err)
		}

		var link models.ShortLink
		if err := json.Unmarshal(data, &link); err != nil {
			return nil, fmt.Errorf("%s: failed to decode record %q: %w", op, key, err)
		}

		links = append(links, &link)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

// Update merges the provided fields into the owner's record. Slug, owner and
// creation time are never altered.
func (s *LinkService) Update(ctx context.Context, owner, slug string, params UpdateParams) (*models.ShortLink, error) {
	const op = "service.LinkService.Update"

	if params.OriginalURL != nil && !isAbsoluteURL(*params.OriginalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	link, err := s.load(ctx, owner, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.OriginalURL != nil {
		link.OriginalURL = *params.OriginalURL
	}
	if params.Description != nil {
		link.Description = *params.Description
	}

	data, err := json.Marshal(link)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode record: %w", op, err)
	}

	if err := s.store.Put(ctx, storage.RecordKey(owner, slug), data); err != nil {
		return nil, fmt.Errorf("%s: failed to store record: %w", op, err)
	}

	return link, nil
}

// Delete removes the owner's record for the slug.
func (s *LinkService) Delete(ctx context.Context, owner, slug string) error {
	const op = "service.LinkService.Delete"

	if err := s.store.Delete(ctx, storage.RecordKey(owner, slug)); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", op, ErrURLNotFound)
		}
		return fmt.Errorf("%s: failed to delete record: %w", op, err)
	}

	return nil
}

// Resolve returns the record a visitor should be redirected to and schedules
// an access-count increment that does not gate the redirect. The write runs
// on a detached context; if it fails, the increment is logged and dropped.
func (s *LinkService) Resolve(ctx context.Context, owner, slug string) (*models.ShortLink, error) {
	const op = "service.LinkService.Resolve"

	link, err := s.load(ctx, owner, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.pending.Add(1)
	go s.recordAccess(context.WithoutCancel(ctx), owner, *link)

	return link, nil
}

// Drain blocks until all scheduled access-count writes have finished.
func (s *LinkService) Drain() {
	s.pending.Wait()
}

func (s *LinkService) recordAccess(ctx context.Context, owner string, link models.ShortLink) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, accessWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	link.AccessCount++
	link.LastAccessed = &now

	data, err := json.Marshal(&link)
	if err != nil {
		s.logger.Error("failed to encode access update",
			slog.String("slug", link.Slug), slog.Any("error", err))
		return
	}

	if err := s.store.Put(ctx, storage.RecordKey(owner, link.Slug), data); err != nil {
		s.logger.Error("failed to store access update",
			slog.String("slug", link.Slug), slog.Any("error", err))
	}
}

// load reads and decodes a record, enforcing the defensive ownership check on
// top of the key scoping.
func (s *LinkService) load(ctx context.Context, owner, slug string) (*models.ShortLink, error) {
	data, err := s.store.Get(ctx, storage.RecordKey(owner, slug))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var link models.ShortLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	if link.Owner != owner {
		return nil, ErrAccessDenied
	}

	return &link, nil
}

func isAbsoluteURL(rawURL string) bool {
	u, err := url.ParseRequestURI(rawURL)
	return err == nil && u.Scheme != ""
}

func isValidSlug(slug string) bool {
	return len(slug) <= maxSlugLength && slugPattern.MatchString(slug)
}
