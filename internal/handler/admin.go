package handler

import (
	"encoding/json"
	"net/http"
)

type removeCardRequest struct {
	UserID     int64  `json:"user_id"`
	CardNumber string `json:"card_number"`
}

// ListAllCards returns every card in the store
func (h *Handler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListAllCards(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toCardResponses(cards))
}

// CommitCreations applies all pending card creation requests
func (h *Handler) CommitCreations(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CommitCardCreations(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommitBlocks applies all pending card block requests
func (h *Handler) CommitBlocks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CommitCardBlocks(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCard retires a card immediately
func (h *Handler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	var req removeCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == 0 || req.CardNumber == "" {
		h.badRequest(w, "user_id and card_number are required")
		return
	}

	if err := h.svc.RemoveCard(r.Context(), req.UserID, req.CardNumber); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
