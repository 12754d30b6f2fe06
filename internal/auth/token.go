package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

const (
	DefaultTokenLength      = 40
	DefaultMaxTokensPerUser = 10
	maxTokenNameLength      = 100
)

var defaultAbilities = []string{"read", "write", "delete", models.AbilityAll}

// TokenConfig carries the limits the service enforces. Zero values fall
// back to the defaults above.
type TokenConfig struct {
	TokenLength      int
	MaxTokensPerUser int
	AllowedAbilities []string
}

func (c TokenConfig) withDefaults() TokenConfig {
	if c.TokenLength <= 0 {
		c.TokenLength = DefaultTokenLength
	}
	if c.MaxTokensPerUser <= 0 {
		c.MaxTokensPerUser = DefaultMaxTokensPerUser
	}
	if len(c.AllowedAbilities) == 0 {
		c.AllowedAbilities = defaultAbilities
	}
	return c
}

// TokenService is the sole authority for creating, authenticating and
// invalidating API tokens.
type TokenService struct {
	store TokenStore
	cfg   TokenConfig
}

func NewTokenService(store TokenStore, cfg TokenConfig) *TokenService {
	return &TokenService{store: store, cfg: cfg.withDefaults()}
}

// HashToken computes the one-way hash stored and compared for lookups.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// generatePlaintext returns a random hex string of exactly length chars.
func generatePlaintext(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

// CreateToken validates inputs, enforces the per-user ceiling, and persists
// a new token. The ceiling check rides inside the store's conditional
// insert, so concurrent creates cannot overshoot it. The plaintext is
// returned exactly once; only its hash is stored.
func (s *TokenService) CreateToken(ctx context.Context, userID uuid.UUID, name string, abilities []string, expiresAt *time.Time) (*models.APIToken, string, error) {
	if err := s.validate(name, abilities, expiresAt); err != nil {
		return nil, "", err
	}

	now := time.Now()
	plaintext, err := generatePlaintext(s.cfg.TokenLength)
	if err != nil {
		return nil, "", err
	}

	token := &models.APIToken{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		TokenHash: HashToken(plaintext),
		Abilities: slices.Clone(abilities),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	ok, err := s.store.InsertIfUnderLimit(ctx, token, s.cfg.MaxTokensPerUser, now)
	if err != nil {
		return nil, "", &apierrors.CreationFailedError{Resource: "token", Err: err}
	}
	if !ok {
		return nil, "", &apierrors.RateLimitError{RetryAfter: s.retryAfter(ctx, userID, now)}
	}
	return token, plaintext, nil
}

func (s *TokenService) validate(name string, abilities []string, expiresAt *time.Time) error {
	fields := map[string][]string{}
	if name == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	if len(name) > maxTokenNameLength {
		fields["name"] = append(fields["name"], fmt.Sprintf("name must be at most %d characters", maxTokenNameLength))
	}
	for _, a := range abilities {
		if !slices.Contains(s.cfg.AllowedAbilities, a) {
			fields["abilities"] = append(fields["abilities"], fmt.Sprintf("unknown ability %q", a))
		}
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		fields["expires_at"] = append(fields["expires_at"], "expiry must be in the future")
	}
	if len(fields) > 0 {
		return &apierrors.ValidationError{Fields: fields}
	}
	return nil
}

// retryAfter is the time until the user's soonest token expiry, floored at
// one minute. With no expiring tokens the slot only frees on explicit
// deletion, so a fixed hour is reported.
func (s *TokenService) retryAfter(ctx context.Context, userID uuid.UUID, now time.Time) time.Duration {
	tokens, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return time.Hour
	}
	var soonest time.Duration
	for _, t := range tokens {
		if t.ExpiresAt == nil || !t.ExpiresAt.After(now) {
			continue
		}
		d := t.ExpiresAt.Sub(now)
		if soonest == 0 || d < soonest {
			soonest = d
		}
	}
	if soonest == 0 {
		return time.Hour
	}
	if soonest < time.Minute {
		return time.Minute
	}
	return soonest
}

// AuthenticateToken looks up the presented credential by full-hash
// equality. It returns (nil, nil) when no usable token matches; the error
// return is reserved for store failures. A successful match updates the
// last-used timestamp best-effort.
func (s *TokenService) AuthenticateToken(ctx context.Context, raw string) (*models.APIToken, error) {
	if raw == "" {
		return nil, nil
	}
	token, err := s.store.FindByHash(ctx, HashToken(raw))
	if err != nil {
		if err == ErrTokenNotFound {
			return nil, nil
		}
		return nil, err
	}
	if token.IsExpired() {
		return nil, nil
	}

	now := time.Now()
	if err := s.store.TouchLastUsed(ctx, token.ID, now); err == nil {
		token.LastUsedAt = &now
	}
	return token, nil
}

// CanCreateToken reports whether the user is under the active-token ceiling.
func (s *TokenService) CanCreateToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := s.store.CountActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return false, err
	}
	return count < s.cfg.MaxTokensPerUser, nil
}

// DeleteToken removes a token after verifying ownership.
func (s *TokenService) DeleteToken(ctx context.Context, userID, tokenID uuid.UUID) error {
	token, err := s.store.FindByID(ctx, tokenID)
	if err != nil {
		if err == ErrTokenNotFound {
			return &apierrors.NotFoundError{Resource: "token", ID: tokenID.String()}
		}
		return err
	}
	if token.UserID != userID {
		return &apierrors.AccessDeniedError{Resource: "token", Reason: "token belongs to another user"}
	}
	return s.store.Delete(ctx, tokenID)
}

// ListTokens returns the user's tokens, newest first.
func (s *TokenService) ListTokens(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	tokens, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tokens, func(a, b models.APIToken) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return tokens, nil
}

// CleanupExpiredTokens bulk-deletes expired tokens and returns the count
// removed. Idempotent.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, time.Now())
}
