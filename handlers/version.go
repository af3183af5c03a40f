package handlers

import (
	"encoding/json"
	"net/http"
)

type VersionHandler struct {
	Version string
}

func NewVersionHandler(version string) *VersionHandler {
	return &VersionHandler{Version: version}
}

func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": h.Version})
}
