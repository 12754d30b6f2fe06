package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/cache"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

const maxNameLength = 120

// Cache is the read-through cache the service keys deck rows under.
// *cache.Cache satisfies it; tests swap in an in-process map.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	db    *pgxpool.Pool
	cache Cache
}

func NewService(db *pgxpool.Pool, c Cache) *Service {
	return &Service{db: db, cache: c}
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (r CreateRequest) validate() error {
	fields := map[string][]string{}
	if r.Name == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	if len(r.Name) > maxNameLength {
		fields["name"] = append(fields["name"], fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if len(fields) > 0 {
		return &apierrors.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Deck, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var d models.Deck
	err := s.db.QueryRow(ctx,
		`INSERT INTO decks (id, user_id, name, description, is_public)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, name, description, is_public, card_count, created_at, updated_at`,
		uuid.New(), userID, req.Name, req.Description, req.IsPublic,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.IsPublic, &d.CardCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, &apierrors.CreationFailedError{Resource: "deck", Err: err}
	}
	return &d, nil
}

// Get returns a deck visible to userID: their own, or any public deck.
func (s *Service) Get(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error) {
	var d models.Deck
	if err := s.cache.Get(ctx, cache.DeckKey(deckID), &d); err == nil {
		if d.UserID != userID && !d.IsPublic {
			return nil, &apierrors.AccessDeniedError{Resource: "deck", Reason: "deck is private"}
		}
		return &d, nil
	}

	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, description, is_public, card_count, created_at, updated_at
		 FROM decks WHERE id = $1`, deckID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.IsPublic, &d.CardCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apierrors.NotFoundError{Resource: "deck", ID: deckID.String()}
		}
		return nil, fmt.Errorf("get deck: %w", err)
	}

	if d.UserID != userID && !d.IsPublic {
		return nil, &apierrors.AccessDeniedError{Resource: "deck", Reason: "deck is private"}
	}

	if err := s.cache.Set(ctx, cache.DeckKey(deckID), &d); err != nil {
		slog.Warn("deck cache set failed", "deck_id", deckID, "error", err)
	}
	return &d, nil
}

// GetOwned returns the deck only if userID owns it. Used for writes.
func (s *Service) GetOwned(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error) {
	d, err := s.Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, &apierrors.AccessDeniedError{Resource: "deck", Reason: "deck belongs to another user"}
	}
	return d, nil
}

// List returns one page of the user's decks plus the total count.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, perPage int) ([]models.Deck, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM decks WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count decks: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, description, is_public, card_count, created_at, updated_at
		 FROM decks WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var d models.Deck
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.IsPublic, &d.CardCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, total, rows.Err()
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

func (s *Service) Update(ctx context.Context, userID, deckID uuid.UUID, req UpdateRequest) (*models.Deck, error) {
	d, err := s.GetOwned(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > maxNameLength {
			return nil, apierrors.NewValidationError("name", fmt.Sprintf("name must be 1..%d characters", maxNameLength))
		}
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.IsPublic != nil {
		d.IsPublic = *req.IsPublic
	}

	err = s.db.QueryRow(ctx,
		`UPDATE decks SET name = $1, description = $2, is_public = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		d.Name, d.Description, d.IsPublic, deckID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update deck: %w", err)
	}

	s.Invalidate(ctx, deckID)
	return d, nil
}

// Delete removes an owned deck; cards and reviews cascade in the schema.
func (s *Service) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, userID, deckID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM decks WHERE id = $1`, deckID); err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	s.Invalidate(ctx, deckID)
	return nil
}

// Recount refreshes the denormalized card_count. Run from the worker after
// bulk card changes.
func (s *Service) Recount(ctx context.Context, deckID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE decks SET card_count = (SELECT COUNT(*) FROM flashcards WHERE deck_id = $1)
		 WHERE id = $1`, deckID)
	if err != nil {
		return fmt.Errorf("recount deck %s: %w", deckID, err)
	}
	s.Invalidate(ctx, deckID)
	return nil
}

// Invalidate drops the deck's cache entry. Callers that mutate deck rows
// out of band, like the flashcard service bumping card_count, call this
// after commit so reads never serve the stale count for a full TTL.
func (s *Service) Invalidate(ctx context.Context, deckID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.DeckKey(deckID)); err != nil {
		slog.Warn("deck cache invalidation failed", "deck_id", deckID, "error", err)
	}
}
