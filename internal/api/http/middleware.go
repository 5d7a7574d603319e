package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/na3work/shortlink/internal/auth"
	"github.com/na3work/shortlink/pkg/response"
)

// withAuth verifies the bearer credential and injects the resulting user into
// the request context. Requests without a valid credential are rejected before
// any handler or store call runs.
func withAuth(verifier auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.AuthenticationFailedResponse)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.AuthenticationFailedResponse)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}
