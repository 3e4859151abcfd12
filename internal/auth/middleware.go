package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityContextKey contextKey = "identity"

// RequireSession is an HTTP middleware that runs the verifier over the
// request's cookies. Denied requests get a uniform 403; accepted requests
// carry the identity context for downstream handlers.
func RequireSession(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := verifier.Verify(r.Context(), cookieEntries(r))
			if !decision.Authorized {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("<p>Forbidden</p>"))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, decision.Context)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity context attached by RequireSession.
func IdentityFromContext(ctx context.Context) (map[string]string, bool) {
	identity, ok := ctx.Value(identityContextKey).(map[string]string)
	return identity, ok
}

// cookieEntries splits the request's Cookie headers into individual
// "name=value" entries, the shape the verifier consumes.
func cookieEntries(r *http.Request) []string {
	var entries []string
	for _, header := range r.Header.Values("Cookie") {
		for _, entry := range strings.Split(header, ";") {
			entries = append(entries, strings.TrimSpace(entry))
		}
	}
	return entries
}
