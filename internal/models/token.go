package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AbilityAll grants every ability. An empty ability set grants none.
const AbilityAll = "*"

type APIToken struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Name       string     `json:"name" db:"name"`
	TokenHash  string     `json:"-" db:"token_hash"`
	Abilities  []string   `json:"abilities" db:"abilities"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

func (t *APIToken) IsExpired() bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(time.Now())
}

// Can reports whether the token grants the given ability. Expired tokens
// grant nothing.
func (t *APIToken) Can(ability string) bool {
	if t.IsExpired() {
		return false
	}
	return slices.Contains(t.Abilities, AbilityAll) || slices.Contains(t.Abilities, ability)
}
