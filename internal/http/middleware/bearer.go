package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/dentago-admin/internal/token"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// BearerToken forwards the caller's "Authorization: Bearer" token to the
// Dentago API by attaching it to the request context, where
// token.ContextSource picks it up. Requests without one pass through
// untouched, so the API client reports them as unauthenticated unless a
// stored-token fallback was explicitly enabled. The token is never verified
// here; the Dentago API decides.
func BearerToken(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerFromHeader(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if info, decoded := token.Inspect(tok); decoded && info.Expired(time.Now()) {
				logger.Debug("forwarding expired operator token", "subject", info.Subject, "path", r.URL.Path)
			}
			next.ServeHTTP(w, r.WithContext(token.WithToken(r.Context(), tok)))
		})
	}
}

func bearerFromHeader(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
