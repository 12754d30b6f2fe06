package flashcard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

const maxSideLength = 2000

// Service manages cards within a deck. Ownership checks delegate to the
// deck service so visibility rules live in one place.
type Service struct {
	db    *pgxpool.Pool
	decks *deck.Service
}

func NewService(db *pgxpool.Pool, decks *deck.Service) *Service {
	return &Service{db: db, decks: decks}
}

type CreateRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (r CreateRequest) validate() error {
	fields := map[string][]string{}
	if r.Front == "" {
		fields["front"] = append(fields["front"], "front is required")
	}
	if len(r.Front) > maxSideLength {
		fields["front"] = append(fields["front"], fmt.Sprintf("front must be at most %d characters", maxSideLength))
	}
	if r.Back == "" {
		fields["back"] = append(fields["back"], "back is required")
	}
	if len(r.Back) > maxSideLength {
		fields["back"] = append(fields["back"], fmt.Sprintf("back must be at most %d characters", maxSideLength))
	}
	if len(fields) > 0 {
		return &apierrors.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID, deckID uuid.UUID, req CreateRequest) (*models.Flashcard, error) {
	if _, err := s.decks.GetOwned(ctx, userID, deckID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var c models.Flashcard
	err = tx.QueryRow(ctx,
		`INSERT INTO flashcards (id, deck_id, front, back, position)
		 VALUES ($1, $2, $3, $4,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM flashcards WHERE deck_id = $2))
		 RETURNING id, deck_id, front, back, position, created_at, updated_at`,
		uuid.New(), deckID, req.Front, req.Back,
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, &apierrors.CreationFailedError{Resource: "flashcard", Err: err}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE decks SET card_count = card_count + 1, updated_at = now() WHERE id = $1`, deckID,
	); err != nil {
		return nil, fmt.Errorf("bump card count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.decks.Invalidate(ctx, deckID)
	return &c, nil
}

// ListByDeck returns the deck's cards in position order. Read access
// follows deck visibility (owner or public).
func (s *Service) ListByDeck(ctx context.Context, userID, deckID uuid.UUID) ([]models.Flashcard, error) {
	if _, err := s.decks.Get(ctx, userID, deckID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, deck_id, front, back, position, created_at, updated_at
		 FROM flashcards WHERE deck_id = $1 ORDER BY position`, deckID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		var c models.Flashcard
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Service) get(ctx context.Context, deckID, cardID uuid.UUID) (*models.Flashcard, error) {
	var c models.Flashcard
	err := s.db.QueryRow(ctx,
		`SELECT id, deck_id, front, back, position, created_at, updated_at
		 FROM flashcards WHERE id = $1 AND deck_id = $2`, cardID, deckID,
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apierrors.NotFoundError{Resource: "flashcard", ID: cardID.String()}
		}
		return nil, fmt.Errorf("get flashcard: %w", err)
	}
	return &c, nil
}

type UpdateRequest struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
}

func (s *Service) Update(ctx context.Context, userID, deckID, cardID uuid.UUID, req UpdateRequest) (*models.Flashcard, error) {
	if _, err := s.decks.GetOwned(ctx, userID, deckID); err != nil {
		return nil, err
	}
	c, err := s.get(ctx, deckID, cardID)
	if err != nil {
		return nil, err
	}

	if req.Front != nil {
		if *req.Front == "" || len(*req.Front) > maxSideLength {
			return nil, apierrors.NewValidationError("front", fmt.Sprintf("front must be 1..%d characters", maxSideLength))
		}
		c.Front = *req.Front
	}
	if req.Back != nil {
		if *req.Back == "" || len(*req.Back) > maxSideLength {
			return nil, apierrors.NewValidationError("back", fmt.Sprintf("back must be 1..%d characters", maxSideLength))
		}
		c.Back = *req.Back
	}

	err = s.db.QueryRow(ctx,
		`UPDATE flashcards SET front = $1, back = $2, updated_at = now()
		 WHERE id = $3 RETURNING updated_at`,
		c.Front, c.Back, cardID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update flashcard: %w", err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, userID, deckID, cardID uuid.UUID) error {
	if _, err := s.decks.GetOwned(ctx, userID, deckID); err != nil {
		return err
	}
	if _, err := s.get(ctx, deckID, cardID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, cardID); err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE decks SET card_count = GREATEST(card_count - 1, 0), updated_at = now() WHERE id = $1`, deckID,
	); err != nil {
		return fmt.Errorf("drop card count: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.decks.Invalidate(ctx, deckID)
	return nil
}

// Reposition moves a card to a new 1-based position within its deck,
// shifting its neighbors.
func (s *Service) Reposition(ctx context.Context, userID, deckID, cardID uuid.UUID, position int) error {
	if _, err := s.decks.GetOwned(ctx, userID, deckID); err != nil {
		return err
	}
	if position < 1 {
		return apierrors.NewValidationError("position", "position must be at least 1")
	}
	c, err := s.get(ctx, deckID, cardID)
	if err != nil {
		return err
	}

	var last int
	if err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM flashcards WHERE deck_id = $1`, deckID,
	).Scan(&last); err != nil {
		return fmt.Errorf("deck size: %w", err)
	}
	if position > last {
		return &apierrors.InvalidOperationError{
			Operation: "reposition",
			Reasons: map[string][]string{
				"position": {fmt.Sprintf("position %d is beyond the last card (%d)", position, last)},
			},
		}
	}
	if c.Position == position {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if position < c.Position {
		_, err = tx.Exec(ctx,
			`UPDATE flashcards SET position = position + 1
			 WHERE deck_id = $1 AND position >= $2 AND position < $3`,
			deckID, position, c.Position)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE flashcards SET position = position - 1
			 WHERE deck_id = $1 AND position > $2 AND position <= $3`,
			deckID, c.Position, position)
	}
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE flashcards SET position = $1, updated_at = now() WHERE id = $2`,
		position, cardID,
	); err != nil {
		return fmt.Errorf("move flashcard: %w", err)
	}
	return tx.Commit(ctx)
}
