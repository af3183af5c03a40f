package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/catalog"
)

type catalogSearcher interface {
	Search(ctx context.Context, query string) ([]models.CatalogEntry, error)
}

var _ catalogSearcher = (*catalog.Service)(nil)

type CatalogHandler struct {
	Catalog catalogSearcher
}

func NewCatalogHandler(service catalogSearcher) *CatalogHandler {
	return &CatalogHandler{Catalog: service}
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	entries, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrQueryRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
