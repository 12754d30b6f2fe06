package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/queue"
)

// DeckWorker refreshes denormalized deck card counts.
type DeckWorker struct {
	decks *deck.Service
}

func NewDeckWorker(decks *deck.Service) *DeckWorker {
	return &DeckWorker{decks: decks}
}

func (w *DeckWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DeckRecountPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	deckID, err := uuid.Parse(payload.DeckID)
	if err != nil {
		return fmt.Errorf("parse deck id: %w", err)
	}
	return w.decks.Recount(ctx, deckID)
}
