package study

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

// Service builds study queues and records review outcomes.
type Service struct {
	db    *pgxpool.Pool
	decks *deck.Service
}

func NewService(db *pgxpool.Pool, decks *deck.Service) *Service {
	return &Service{db: db, decks: decks}
}

// Queue returns up to limit cards from the deck, least recently reviewed by
// this user first. Cards the user has never reviewed come before all
// reviewed ones and are shuffled among themselves.
func (s *Service) Queue(ctx context.Context, userID, deckID uuid.UUID, limit int) ([]models.Flashcard, error) {
	if _, err := s.decks.Get(ctx, userID, deckID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.deck_id, f.front, f.back, f.position, f.created_at, f.updated_at,
		        MAX(r.reviewed_at) AS last_review
		 FROM flashcards f
		 LEFT JOIN reviews r ON r.flashcard_id = f.id AND r.user_id = $1
		 WHERE f.deck_id = $2
		 GROUP BY f.id
		 ORDER BY last_review ASC NULLS FIRST
		 LIMIT $3`,
		userID, deckID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("build study queue: %w", err)
	}
	defer rows.Close()

	var cards []models.Flashcard
	var unseen int
	for rows.Next() {
		var c models.Flashcard
		var lastReview *time.Time
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt, &lastReview); err != nil {
			return nil, fmt.Errorf("scan study card: %w", err)
		}
		if lastReview == nil {
			unseen++
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Never-reviewed cards sort together at the front; shuffle that prefix
	// so repeated sessions do not always open with the same card.
	rand.Shuffle(unseen, func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards, nil
}

type ReviewRequest struct {
	FlashcardID uuid.UUID `json:"flashcard_id"`
	Correct     bool      `json:"correct"`
}

// Record stores one review outcome. The card must belong to the given deck
// and the deck must be visible to the user.
func (s *Service) Record(ctx context.Context, userID, deckID uuid.UUID, req ReviewRequest) (*models.Review, error) {
	if _, err := s.decks.Get(ctx, userID, deckID); err != nil {
		return nil, err
	}
	if req.FlashcardID == uuid.Nil {
		return nil, apierrors.NewValidationError("flashcard_id", "flashcard_id is required")
	}

	var belongs bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM flashcards WHERE id = $1 AND deck_id = $2)`,
		req.FlashcardID, deckID,
	).Scan(&belongs); err != nil {
		return nil, fmt.Errorf("check flashcard: %w", err)
	}
	if !belongs {
		return nil, &apierrors.NotFoundError{Resource: "flashcard", ID: req.FlashcardID.String()}
	}

	var r models.Review
	err := s.db.QueryRow(ctx,
		`INSERT INTO reviews (id, user_id, flashcard_id, correct)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, flashcard_id, correct, reviewed_at`,
		uuid.New(), userID, req.FlashcardID, req.Correct,
	).Scan(&r.ID, &r.UserID, &r.FlashcardID, &r.Correct, &r.ReviewedAt)
	if err != nil {
		return nil, &apierrors.CreationFailedError{Resource: "review", Err: err}
	}
	return &r, nil
}

type Stats struct {
	DeckID       uuid.UUID `json:"deck_id"`
	CardsTotal   int       `json:"cards_total"`
	CardsSeen    int       `json:"cards_seen"`
	ReviewsTotal int       `json:"reviews_total"`
	Correct      int       `json:"correct"`
	Accuracy     float64   `json:"accuracy"`
}

// DeckStats summarizes the user's review history for one deck.
func (s *Service) DeckStats(ctx context.Context, userID, deckID uuid.UUID) (*Stats, error) {
	d, err := s.decks.Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	st := &Stats{DeckID: deckID, CardsTotal: d.CardCount}
	err = s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT r.flashcard_id),
		        COUNT(*),
		        COUNT(*) FILTER (WHERE r.correct)
		 FROM reviews r
		 JOIN flashcards f ON f.id = r.flashcard_id
		 WHERE r.user_id = $1 AND f.deck_id = $2`,
		userID, deckID,
	).Scan(&st.CardsSeen, &st.ReviewsTotal, &st.Correct)
	if err != nil {
		return nil, fmt.Errorf("deck stats: %w", err)
	}
	if st.ReviewsTotal > 0 {
		st.Accuracy = float64(st.Correct) / float64(st.ReviewsTotal)
	}
	return st, nil
}
