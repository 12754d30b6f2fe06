package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

func newTestService(t *testing.T, cfg TokenConfig) (*TokenService, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	return NewTokenService(store, cfg), store
}

func TestCreateTokenReturnsPlaintextOnce(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{})
	userID := uuid.New()

	token, plaintext, err := svc.CreateToken(context.Background(), userID, "CI", []string{"read", "write"}, nil)
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Len(t, plaintext, DefaultTokenLength)
	assert.Equal(t, HashToken(plaintext), token.TokenHash)
	assert.NotEqual(t, plaintext, token.TokenHash)
	assert.Equal(t, userID, token.UserID)
	assert.Nil(t, token.ExpiresAt)
}

func TestCreateTokenLengthConfigurable(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{TokenLength: 64})

	_, plaintext, err := svc.CreateToken(context.Background(), uuid.New(), "long", nil, nil)
	require.NoError(t, err)
	assert.Len(t, plaintext, 64)
}

func TestCreateTokenValidation(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{})
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		tokenName string
		abilities []string
		expiresAt *time.Time
		field     string
	}{
		{"empty name", "", nil, nil, "name"},
		{"unknown ability", "t", []string{"admin"}, nil, "abilities"},
		{"past expiry", "t", nil, &past, "expires_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateToken(ctx, uuid.New(), tt.tokenName, tt.abilities, tt.expiresAt)
			var verr *apierrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAuthenticateTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{})
	ctx := context.Background()

	created, plaintext, err := svc.CreateToken(ctx, uuid.New(), "CI", []string{"read"}, nil)
	require.NoError(t, err)

	got, err := svc.AuthenticateToken(ctx, plaintext)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.NotNil(t, got.LastUsedAt)
	assert.False(t, got.IsExpired())

	wrong, err := svc.AuthenticateToken(ctx, "wrong-value")
	require.NoError(t, err)
	assert.Nil(t, wrong)
}

func TestExpiryBoundary(t *testing.T) {
	justExpired := time.Now().Add(-time.Second)
	tomorrow := time.Now().Add(24 * time.Hour)

	expired := &models.APIToken{ExpiresAt: &justExpired, Abilities: []string{"read"}}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.Can("read"))

	live := &models.APIToken{ExpiresAt: &tomorrow, Abilities: []string{"read"}}
	assert.False(t, live.IsExpired())
	assert.True(t, live.Can("read"))
}

func TestAuthenticateExpiredTokenReturnsNone(t *testing.T) {
	svc, store := newTestService(t, TokenConfig{})
	ctx := context.Background()

	plaintext := "expired-token-plaintext"
	expiry := time.Now().Add(-time.Second)
	require.NoError(t, store.Insert(ctx, &models.APIToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "old",
		TokenHash: HashToken(plaintext),
		ExpiresAt: &expiry,
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	got, err := svc.AuthenticateToken(ctx, plaintext)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAbilitySemantics(t *testing.T) {
	readOnly := &models.APIToken{Abilities: []string{"read"}}
	assert.True(t, readOnly.Can("read"))
	assert.False(t, readOnly.Can("write"))

	wildcard := &models.APIToken{Abilities: []string{"*"}}
	assert.True(t, wildcard.Can("anything"))

	none := &models.APIToken{Abilities: []string{}}
	assert.False(t, none.Can("read"))
	assert.False(t, none.Can("*"))
}

func TestRateCeiling(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{MaxTokensPerUser: 2})
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		_, _, err := svc.CreateToken(ctx, userID, "t", nil, nil)
		require.NoError(t, err)
	}

	ok, err := svc.CanCreateToken(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = svc.CreateToken(ctx, userID, "over", nil, nil)
	var rl *apierrors.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Positive(t, rl.RetryAfter)

	// Another user is unaffected.
	ok, err = svc.CanCreateToken(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateCeilingIgnoresExpiredTokens(t *testing.T) {
	svc, store := newTestService(t, TokenConfig{MaxTokensPerUser: 2})
	ctx := context.Background()
	userID := uuid.New()

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Insert(ctx, &models.APIToken{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      "stale",
			TokenHash: HashToken(uuid.NewString()),
			ExpiresAt: &past,
			CreatedAt: past.Add(-time.Hour),
		}))
	}

	// Expired tokens hold no slot even before the cleanup sweep runs.
	_, _, err := svc.CreateToken(ctx, userID, "fresh", nil, nil)
	require.NoError(t, err)
}

func TestRateCeilingHoldsUnderConcurrentCreates(t *testing.T) {
	const limit = 3
	svc, store := newTestService(t, TokenConfig{MaxTokensPerUser: limit})
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.CreateToken(ctx, userID, "burst", nil, nil)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		var rl *apierrors.RateLimitError
		require.ErrorAs(t, err, &rl)
	}
	assert.Equal(t, limit, created)

	n, err := store.CountActiveByUser(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, limit, n)
}

func TestRetryAfterTracksSoonestExpiry(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{MaxTokensPerUser: 1})
	ctx := context.Background()
	userID := uuid.New()

	expiry := time.Now().Add(30 * time.Minute)
	_, _, err := svc.CreateToken(ctx, userID, "t", nil, &expiry)
	require.NoError(t, err)

	_, _, err = svc.CreateToken(ctx, userID, "over", nil, nil)
	var rl *apierrors.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.LessOrEqual(t, rl.RetryAfter, 30*time.Minute)
	assert.GreaterOrEqual(t, rl.RetryAfter, time.Minute)
}

func TestDeleteTokenOwnership(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{})
	ctx := context.Background()
	owner := uuid.New()

	token, _, err := svc.CreateToken(ctx, owner, "mine", nil, nil)
	require.NoError(t, err)

	err = svc.DeleteToken(ctx, uuid.New(), token.ID)
	var denied *apierrors.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	require.NoError(t, svc.DeleteToken(ctx, owner, token.ID))

	err = svc.DeleteToken(ctx, owner, token.ID)
	var notFound *apierrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCleanupExpiredTokensIdempotent(t *testing.T) {
	svc, store := newTestService(t, TokenConfig{})
	ctx := context.Background()

	expiry := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Insert(ctx, &models.APIToken{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			TokenHash: HashToken(uuid.NewString()),
			ExpiresAt: &expiry,
		}))
	}
	_, _, err := svc.CreateToken(ctx, uuid.New(), "keeper", nil, nil)
	require.NoError(t, err)

	deleted, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	deleted, err = svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)
}

func TestTokenLifecycleEndToEnd(t *testing.T) {
	svc, _ := newTestService(t, TokenConfig{})
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	created, plaintext, err := svc.CreateToken(ctx, owner, "CI", []string{"read", "write"}, nil)
	require.NoError(t, err)
	assert.Len(t, plaintext, DefaultTokenLength)

	authed, err := svc.AuthenticateToken(ctx, plaintext)
	require.NoError(t, err)
	require.NotNil(t, authed)
	assert.Equal(t, created.ID, authed.ID)
	assert.NotNil(t, authed.LastUsedAt)
	assert.False(t, authed.IsExpired())

	var denied *apierrors.AccessDeniedError
	require.ErrorAs(t, svc.DeleteToken(ctx, stranger, created.ID), &denied)

	require.NoError(t, svc.DeleteToken(ctx, owner, created.ID))

	gone, err := svc.AuthenticateToken(ctx, plaintext)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
