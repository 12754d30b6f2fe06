package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/auth"
	"github.com/flashdeckhq/flashdeck/internal/response"
)

type TokenHandler struct {
	tokens *auth.TokenService
	errs   *apierrors.Mapper
}

func NewTokenHandler(tokens *auth.TokenService, errs *apierrors.Mapper) *TokenHandler {
	return &TokenHandler{tokens: tokens, errs: errs}
}

type createTokenRequest struct {
	Name      string     `json:"name"`
	Abilities []string   `json:"abilities"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create issues a new token. The plaintext appears in this response and
// never again.
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	token, plaintext, err := h.tokens.CreateToken(r.Context(), userID, req.Name, req.Abilities, req.ExpiresAt)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}

	response.New(response.StatusCreated).
		Data(token).
		Meta("plain_text_token", plaintext).
		Write(w)
}

func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	tokens, err := h.tokens.ListTokens(r.Context(), userID)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Success(w, tokens)
}

func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tokenID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid token ID")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.tokens.DeleteToken(r.Context(), userID, tokenID); err != nil {
		h.errs.Respond(w, err)
		return
	}
	response.Deleted(w)
}
