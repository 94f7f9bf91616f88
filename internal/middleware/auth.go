package middleware

import (
	"net/http"
	"strings"

	"github.com/apollorio/rede/internal/handlers"
	"github.com/apollorio/rede/internal/services"
)

const sessionCookieName = "session_token"

type AuthMiddleware struct {
	identity services.IdentityProvider
}

func NewAuthMiddleware(identity services.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{identity: identity}
}

// Authenticate resolves the session and adds the actor to context if valid.
// Does not reject unauthenticated requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := m.identity.Resolve(r.Context(), token)
		if err != nil {
			// Invalid session, continue without actor
			next.ServeHTTP(w, r)
			return
		}

		ctx := handlers.SetActorInContext(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := handlers.GetActorFromContext(r.Context())
		if actor == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionToken pulls the token from the Authorization header, falling back to
// the session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
