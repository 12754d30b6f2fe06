package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/response"
	"github.com/flashdeckhq/flashdeck/internal/study"
)

type StudyHandler struct {
	svc  *study.Service
	errs *apierrors.Mapper
}

func NewStudyHandler(svc *study.Service, errs *apierrors.Mapper) *StudyHandler {
	return &StudyHandler{svc: svc, errs: errs}
}

func (h *StudyHandler) Queue(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cards, err := h.svc.Queue(r.Context(), auth.UserIDFromContext(r.Context()), deckID, limit)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}

	response.New(response.StatusSuccess).
		Data(cards).
		Meta("count", len(cards)).
		Write(w)
}

func (h *StudyHandler) Record(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}

	var req study.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	rev, err := h.svc.Record(r.Context(), auth.UserIDFromContext(r.Context()), deckID, req)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Created(w, rev)
}

func (h *StudyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	deckID, ok := parseID(w, chi.URLParam(r, "id"), "deck")
	if !ok {
		return
	}

	st, err := h.svc.DeckStats(r.Context(), auth.UserIDFromContext(r.Context()), deckID)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Success(w, st)
}
