package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/strongbox/pkg/handlers"
)

// ShareParam is the query parameter carrying a share token.
const ShareParam = "share"

// Middleware resolves the request principal and stores it in the request context.
// A request without an Authorization header proceeds anonymously.
// A malformed or unverifiable bearer token is rejected with 401.
func Middleware(cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var p Principal

			if header := r.Header.Get("Authorization"); header != "" {
				raw, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					handlers.RespondErrorType(w, logger, http.StatusUnauthorized, "Unauthorized", ErrInvalidToken)
					return
				}

				parsed, err := ParseToken(cfg, strings.TrimSpace(raw))
				if err != nil {
					handlers.RespondErrorType(w, logger, http.StatusUnauthorized, "Unauthorized", err)
					return
				}
				p = parsed
			}

			p.ShareToken = r.URL.Query().Get(ShareParam)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
