package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ddanilov/bank-cards/internal/errs"
	"github.com/ddanilov/bank-cards/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler exposes the service operations over HTTP
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrCardNotFound), errors.Is(err, errs.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrCardNotUsable), errors.Is(err, errs.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}
	h.respondJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
