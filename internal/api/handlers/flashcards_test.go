package handlers

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashdeckhq/flashdeck/internal/queue"
)

type captureEnqueuer struct {
	payloads []queue.DeckRecountPayload
	err      error
}

func (c *captureEnqueuer) EnqueueDeckRecount(p queue.DeckRecountPayload) error {
	c.payloads = append(c.payloads, p)
	return c.err
}

func TestRecountEnqueuesDeckID(t *testing.T) {
	q := &captureEnqueuer{}
	h := NewFlashcardHandler(nil, q, nil)
	deckID := uuid.New()

	h.recount(deckID)

	require.Len(t, q.payloads, 1)
	assert.Equal(t, deckID.String(), q.payloads[0].DeckID)
}

func TestRecountWithoutQueueIsNoop(t *testing.T) {
	h := NewFlashcardHandler(nil, nil, nil)
	assert.NotPanics(t, func() {
		h.recount(uuid.New())
	})
}

func TestRecountEnqueueFailureIsSwallowed(t *testing.T) {
	q := &captureEnqueuer{err: errors.New("redis down")}
	h := NewFlashcardHandler(nil, q, nil)

	assert.NotPanics(t, func() {
		h.recount(uuid.New())
	})
	assert.Len(t, q.payloads, 1)
}
