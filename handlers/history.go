package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/history"

	"github.com/gorilla/mux"
)

type historyService interface {
	List() []models.HistoryItem
	Delete(ctx context.Context, itemID string) error
	Purge(ctx context.Context) int
}

var _ historyService = (*history.Service)(nil)

type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.List())
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(mux.Vars(r)["itemID"])
	if itemID == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), itemID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	purged := h.Service.Purge(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"purged": purged})
}
