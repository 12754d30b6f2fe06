package models

import (
	"time"

	"github.com/google/uuid"
)

type Deck struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CardCount   int       `json:"card_count" db:"card_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Flashcard struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DeckID    uuid.UUID `json:"deck_id" db:"deck_id"`
	Front     string    `json:"front" db:"front"`
	Back      string    `json:"back" db:"back"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Review struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	FlashcardID uuid.UUID `json:"flashcard_id" db:"flashcard_id"`
	Correct     bool      `json:"correct" db:"correct"`
	ReviewedAt  time.Time `json:"reviewed_at" db:"reviewed_at"`
}
