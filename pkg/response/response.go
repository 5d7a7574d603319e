// Package response defines the error body shape shared by all API endpoints.
package response

// Wire error kinds. These strings are part of the API contract; clients
// match on them to choose user-facing messages.
const (
	KindAuthenticationFailed = "AUTHENTICATION_FAILED"
	KindAccessDenied         = "ACCESS_DENIED"
	KindInvalidURL           = "INVALID_URL"
	KindInvalidSlug          = "INVALID_SLUG"
	KindSlugExists           = "SLUG_EXISTS"
	KindURLNotFound          = "URL_NOT_FOUND"
	KindInternalError        = "INTERNAL_ERROR"
)

// Error is the body returned with every non-2xx API response.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var (
	AuthenticationFailedResponse = Error{
		Error:   KindAuthenticationFailed,
		Message: "Authentication failed. Provide a valid bearer token.",
	}

	AccessDeniedResponse = Error{
		Error:   KindAccessDenied,
		Message: "You do not have permission to access this URL.",
	}

	InvalidURLResponse = Error{
		Error:   KindInvalidURL,
		Message: "The destination must be a valid absolute URL.",
	}

	InvalidSlugResponse = Error{
		Error:   KindInvalidSlug,
		Message: "Slugs may only contain letters, digits, hyphens and underscores.",
	}

	SlugExistsResponse = Error{
		Error:   KindSlugExists,
		Message: "This slug is already in use.",
	}

	URLNotFoundResponse = Error{
		Error:   KindURLNotFound,
		Message: "The requested URL was not found.",
	}

	InternalErrorResponse = Error{
		Error:   KindInternalError,
		Message: "An internal server error occurred. Please try again later.",
	}
)
