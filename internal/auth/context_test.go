package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeckhq/flashdeck/internal/models"
)

func TestAuthContextAccessors(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "alice", Email: "alice@example.com"}
	token := &models.APIToken{ID: uuid.New(), UserID: user.ID, Name: "CI"}

	ctx := WithAuth(context.Background(), user, token)

	assert.True(t, IsAuthenticated(ctx))
	assert.Equal(t, user, UserFromContext(ctx))
	assert.Equal(t, token, TokenFromContext(ctx))
	assert.Equal(t, user.ID, UserIDFromContext(ctx))
}

func TestAuthContextEmpty(t *testing.T) {
	ctx := context.Background()

	assert.False(t, IsAuthenticated(ctx))
	assert.Nil(t, UserFromContext(ctx))
	assert.Nil(t, TokenFromContext(ctx))
	assert.Equal(t, uuid.Nil, UserIDFromContext(ctx))
}

func TestWithAuthIdempotent(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	token := &models.APIToken{ID: uuid.New(), UserID: user.ID}

	ctx := WithAuth(context.Background(), user, token)
	again := WithAuth(ctx, user, token)

	assert.Equal(t, ctx, again)
	assert.Equal(t, token, TokenFromContext(again))
}
