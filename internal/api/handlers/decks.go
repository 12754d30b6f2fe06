package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/deck"
	"github.com/flashdeckhq/flashdeck/internal/response"
)

type DeckHandler struct {
	svc  *deck.Service
	errs *apierrors.Mapper
}

func NewDeckHandler(svc *deck.Service, errs *apierrors.Mapper) *DeckHandler {
	return &DeckHandler{svc: svc, errs: errs}
}

func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req deck.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	d, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Created(w, d)
}

func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	decks, total, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), page, perPage)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}

	response.Paginated(w, &response.Paginator{
		Items:   decks,
		Count:   len(decks),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	d, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), deckID)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Success(w, d)
}

func (h *DeckHandler) Update(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	var req deck.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	d, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), deckID, req)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Updated(w, d)
}

func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.deckID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserIDFromContext(r.Context()), deckID); err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Deleted(w)
}

func (h *DeckHandler) deckID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid deck ID")
		return uuid.Nil, false
	}
	return id, true
}
