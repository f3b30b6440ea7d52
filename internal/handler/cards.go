package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ddanilov/bank-cards/internal/middleware"
	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type topUpRequest struct {
	CardNumber  string          `json:"card_number"`
	CardHolder  string          `json:"card_holder"`
	AddedAmount decimal.Decimal `json:"added_amount"`
}

type transferRequest struct {
	CardNumberFrom string          `json:"card_number_from"`
	CardHolderFrom string          `json:"card_holder_from"`
	CardNumberTo   string          `json:"card_number_to"`
	CardHolderTo   string          `json:"card_holder_to"`
	AddedAmount    decimal.Decimal `json:"added_amount"`
}

type createCardRequest struct {
	UserID         int64           `json:"user_id"`
	CardHolder     string          `json:"card_holder"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type blockCardRequest struct {
	CardNumber string `json:"card_number"`
}

// cardResponse is the wire form of a card. Balances are rendered with a
// fixed two-decimal scale regardless of the scale they were computed at.
type cardResponse struct {
	ID           int64             `json:"id"`
	UserID       int64             `json:"user_id"`
	NumberMasked string            `json:"card_number_masked"`
	Holder       string            `json:"card_holder"`
	ExpiryDate   time.Time         `json:"expiry_date"`
	Status       models.CardStatus `json:"status"`
	Balance      string            `json:"balance"`
	CreatedAt    time.Time         `json:"created_at"`
}

type cardPageResponse struct {
	Cards []cardResponse `json:"cards"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

func toCardResponse(card *models.Card) cardResponse {
	return cardResponse{
		ID:           card.ID,
		UserID:       card.UserID,
		NumberMasked: card.NumberMasked,
		Holder:       card.Holder,
		ExpiryDate:   card.ExpiryDate,
		Status:       card.Status,
		Balance:      card.Balance.StringFixed(2),
		CreatedAt:    card.CreatedAt,
	}
}

func toCardResponses(cards []models.Card) []cardResponse {
	out := make([]cardResponse, len(cards))
	for i := range cards {
		out[i] = toCardResponse(&cards[i])
	}
	return out
}

// ListCards returns one page of the authenticated user's cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 10)
	if page < 0 || size <= 0 {
		h.badRequest(w, "page must be >= 0 and size must be > 0")
		return
	}

	cards, err := h.svc.ListCards(r.Context(), userID, page, size)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cardPageResponse{
		Cards: toCardResponses(cards.Cards),
		Page:  cards.Page,
		Size:  cards.Size,
		Total: cards.Total,
	})
}

// GetCard returns a single card of the authenticated user
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cardID, err := strconv.ParseInt(mux.Vars(r)["cardId"], 10, 64)
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}

	card, err := h.svc.GetCard(r.Context(), userID, cardID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toCardResponse(card))
}

// TopUp adds funds to a card identified by number and holder
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.CardNumber == "" || req.CardHolder == "" {
		h.badRequest(w, "card_number and card_holder are required")
		return
	}
	if req.AddedAmount.IsNegative() {
		h.badRequest(w, "added_amount must not be negative")
		return
	}

	card, err := h.svc.TopUp(r.Context(), req.CardNumber, req.CardHolder, req.AddedAmount)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toCardResponse(card))
}

// Transfer moves funds between two cards
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.CardNumberFrom == "" || req.CardHolderFrom == "" || req.CardNumberTo == "" || req.CardHolderTo == "" {
		h.badRequest(w, "source and destination card_number and card_holder are required")
		return
	}
	if req.AddedAmount.IsNegative() {
		h.badRequest(w, "added_amount must not be negative")
		return
	}

	err := h.svc.Transfer(r.Context(), req.CardNumberFrom, req.CardHolderFrom, req.CardNumberTo, req.CardHolderTo, req.AddedAmount)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestCreateCard queues a card creation request for a later admin commit
func (h *Handler) RequestCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == 0 || req.CardHolder == "" {
		h.badRequest(w, "user_id and card_holder are required")
		return
	}
	if req.InitialBalance.IsNegative() {
		h.badRequest(w, "initial_balance must not be negative")
		return
	}

	h.svc.RequestCreateCard(models.CardRequest{
		UserID:         req.UserID,
		Holder:         req.CardHolder,
		InitialBalance: req.InitialBalance,
	})
	w.WriteHeader(http.StatusAccepted)
}

// RequestBlockCard queues a block request for one of the authenticated
// user's cards
func (h *Handler) RequestBlockCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req blockCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.CardNumber == "" {
		h.badRequest(w, "card_number is required")
		return
	}

	if err := h.svc.RequestBlockCard(r.Context(), userID, req.CardNumber); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}
