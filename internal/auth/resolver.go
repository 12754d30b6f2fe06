package auth

import (
	"net/http"
	"strings"
)

// TokenResolver extracts a raw credential from a request. Absence of a
// credential is not an error at this layer; resolvers report it as ok=false.
type TokenResolver interface {
	Resolve(r *http.Request) (token string, ok bool)
}

// BearerResolver reads "Authorization: Bearer <token>".
type BearerResolver struct{}

func (BearerResolver) Resolve(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	return token, token != ""
}

// HeaderResolver reads a dedicated header, typically X-API-Key.
type HeaderResolver struct {
	Header string
}

func (h HeaderResolver) Resolve(r *http.Request) (string, bool) {
	token := r.Header.Get(h.Header)
	return token, token != ""
}

// ResolverChain tries resolvers in registration order; the first non-empty
// result wins.
type ResolverChain struct {
	resolvers []TokenResolver
}

func NewResolverChain(resolvers ...TokenResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

// DefaultResolverChain resolves Bearer tokens first, then the given API key
// header.
func DefaultResolverChain(apiKeyHeader string) *ResolverChain {
	return NewResolverChain(BearerResolver{}, HeaderResolver{Header: apiKeyHeader})
}

func (c *ResolverChain) Resolve(r *http.Request) (string, bool) {
	for _, res := range c.resolvers {
		if token, ok := res.Resolve(r); ok {
			return token, true
		}
	}
	return "", false
}
