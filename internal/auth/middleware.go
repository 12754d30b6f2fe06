package auth

import (
	"net/http"

	"github.com/flashdeckhq/flashdeck/internal/response"
)

// Middleware authenticates requests with the resolver chain and the token
// service, attaching the user/token pair to the request context.
type Middleware struct {
	tokens   *TokenService
	users    UserStore
	resolver *ResolverChain
}

func NewMiddleware(tokens *TokenService, users UserStore, resolver *ResolverChain) *Middleware {
	return &Middleware{tokens: tokens, users: users, resolver: resolver}
}

// Authenticate rejects requests without a valid token. Handlers behind it
// can rely on UserFromContext and TokenFromContext being set.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := m.resolver.Resolve(r)
		if !ok {
			response.Unauthorized(w, "missing API token")
			return
		}

		token, err := m.tokens.AuthenticateToken(r.Context(), raw)
		if err != nil {
			response.New(response.StatusServerError).Write(w)
			return
		}
		if token == nil {
			response.Unauthorized(w, "invalid or expired API token")
			return
		}

		user, err := m.users.GetByID(r.Context(), token.UserID)
		if err != nil {
			response.Unauthorized(w, "token owner not found")
			return
		}

		ctx := WithAuth(r.Context(), user, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAbility gates a route on a token ability. Must run after
// Authenticate.
func RequireAbility(ability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromContext(r.Context())
			if token == nil || !token.Can(ability) {
				response.Forbidden(w, "token lacks the "+ability+" ability")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
