package http

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
)

// IdentityParser turns a bearer token into an identity.
type IdentityParser interface {
	Parse(raw string) (auth.Identity, error)
}

// authenticate resolves the caller identity from the Authorization header, or from the
// access_token query parameter for websocket upgrades where browsers cannot set headers.
func authenticate(parser IdentityParser, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, logger, domain.ErrUnauthorized, "")
				return
			}
			id, err := parser.Parse(raw)
			if err != nil {
				logger.WithError(err).Debug("rejected bearer token")
				writeError(w, logger, domain.ErrUnauthorized, "")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// requireRole refuses callers the policy does not grant role.
func requireRole(policy auth.Policy, role string, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, logger, domain.ErrUnauthorized, "")
				return
			}
			if !policy.HasRole(id, role) {
				writeError(w, logger, domain.ErrForbidden, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		const prefix = "bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func callerID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}
