package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/streams"

	"github.com/gorilla/mux"
)

type streamResolver interface {
	Resolve(ctx context.Context, imdbID string) ([]models.StreamCandidate, error)
}

var _ streamResolver = (*streams.Service)(nil)

type StreamsHandler struct {
	Resolver streamResolver
}

func NewStreamsHandler(service streamResolver) *StreamsHandler {
	return &StreamsHandler{Resolver: service}
}

func (h *StreamsHandler) List(w http.ResponseWriter, r *http.Request) {
	imdbID := strings.TrimSpace(mux.Vars(r)["imdbID"])

	candidates, err := h.Resolver.Resolve(r.Context(), imdbID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, streams.ErrIMDBIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(candidates)
}
