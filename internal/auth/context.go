package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/models"
)

type contextKey string

const authKey contextKey = "auth"

// Context carries the authenticated user and token for one request. It is
// attached once by the middleware and read by downstream handlers; nothing
// re-runs resolution.
type Context struct {
	User  *models.User
	Token *models.APIToken
}

func (c *Context) IsAuthenticated() bool {
	return c != nil && c.User != nil && c.Token != nil
}

// WithAuth attaches the user/token pair. Idempotent: if the same token is
// already attached, the context is returned unchanged.
func WithAuth(ctx context.Context, user *models.User, token *models.APIToken) context.Context {
	if cur := FromContext(ctx); cur.IsAuthenticated() && token != nil && cur.Token.ID == token.ID {
		return ctx
	}
	return context.WithValue(ctx, authKey, &Context{User: user, Token: token})
}

func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(authKey).(*Context)
	return c
}

func UserFromContext(ctx context.Context) *models.User {
	if c := FromContext(ctx); c != nil {
		return c.User
	}
	return nil
}

func TokenFromContext(ctx context.Context) *models.APIToken {
	if c := FromContext(ctx); c != nil {
		return c.Token
	}
	return nil
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return uuid.Nil
}

func IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx).IsAuthenticated()
}
