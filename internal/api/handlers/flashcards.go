package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/flashcard"
	"github.com/flashdeckhq/flashdeck/internal/queue"
	"github.com/flashdeckhq/flashdeck/internal/response"
)

// RecountEnqueuer schedules a background card_count refresh for a deck.
// *queue.Client satisfies it.
type RecountEnqueuer interface {
	EnqueueDeckRecount(p queue.DeckRecountPayload) error
}

type FlashcardHandler struct {
	svc   *flashcard.Service
	queue RecountEnqueuer
	errs  *apierrors.Mapper
}

func NewFlashcardHandler(svc *flashcard.Service, q RecountEnqueuer, errs *apierrors.Mapper) *FlashcardHandler {
	return &FlashcardHandler{svc: svc, queue: q, errs: errs}
}

// recount asks the worker to recompute the deck's card_count. The
// synchronous bump in the flashcard service keeps the count fresh; the
// task repairs any drift. Enqueue failures are logged, never surfaced.
func (h *FlashcardHandler) recount(deckID uuid.UUID) {
	if h.queue == nil {
		return
	}
	if err := h.queue.EnqueueDeckRecount(queue.DeckRecountPayload{DeckID: deckID.String()}); err != nil {
		slog.Warn("deck recount enqueue failed", "deck_id", deckID, "error", err)
	}
}

func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}

	var req flashcard.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), deckID, req)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	h.recount(deckID)
	response.Created(w, c)
}

func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}

	cards, err := h.svc.ListByDeck(r.Context(), auth.UserIDFromContext(r.Context()), deckID)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Success(w, cards)
}

func (h *FlashcardHandler) Update(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}
	cardID, ok := parseID(w, chi.URLParam(r, "cardID"), "flashcard")
	if !ok {
		return
	}

	var req flashcard.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), deckID, cardID, req)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Updated(w, c)
}

func (h *FlashcardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}
	cardID, ok := parseID(w, chi.URLParam(r, "cardID"), "flashcard")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserIDFromContext(r.Context()), deckID, cardID); err != nil {
		h.errs.Respond(w, err)
		return
	}
	h.recount(deckID)
	response.Deleted(w)
}

type repositionRequest struct {
	Position int `json:"position"`
}

func (h *FlashcardHandler) Reposition(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}
	cardID, ok := parseID(w, chi.URLParam(r, "cardID"), "flashcard")
	if !ok {
		return
	}

	var req repositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.Reposition(r.Context(), auth.UserIDFromContext(r.Context()), deckID, cardID, req.Position); err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Updated(w, nil)
}

func parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}
