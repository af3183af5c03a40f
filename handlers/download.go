package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/debrid"
	"github.com/Eduard289/cinematrix-cloud/services/streams"

	"github.com/gorilla/mux"
)

type linkResolver interface {
	ResolveDirectLink(ctx context.Context, magnet string) (*debrid.Resolution, error)
	DeleteJob(ctx context.Context, jobID string)
}

var _ linkResolver = (*debrid.Orchestrator)(nil)

type historyRecorder interface {
	Append(title, directURL, remoteJobID string) models.HistoryItem
}

type DownloadHandler struct {
	Resolver linkResolver
	History  historyRecorder

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewDownloadHandler(resolver linkResolver, history historyRecorder) *DownloadHandler {
	return &DownloadHandler{
		Resolver: resolver,
		History:  history,
		inFlight: make(map[string]struct{}),
	}
}

type downloadRequest struct {
	InfoHash string `json:"infoHash"`
	Title    string `json:"title"`
}

type downloadResponse struct {
	DirectURL string `json:"directUrl"`
	JobID     string `json:"jobId"`
}

// Start submits a magnet to the debrid service and blocks until it either
// yields a direct download link or gives up. One download at a time per
// session; a second concurrent request gets a 409.
func (h *DownloadHandler) Start(w http.ResponseWriter, r *http.Request) {
	var payload downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload.InfoHash = strings.TrimSpace(payload.InfoHash)
	if !streams.ValidInfoHash(payload.InfoHash) {
		http.Error(w, "a valid info hash is required", http.StatusBadRequest)
		return
	}

	session := SessionToken(r)
	if !h.acquire(session) {
		http.Error(w, "a download is already in progress", http.StatusConflict)
		return
	}
	defer h.release(session)

	magnet := streams.BuildMagnet(payload.InfoHash, payload.Title)
	resolution, err := h.Resolver.ResolveDirectLink(r.Context(), magnet)
	if err != nil {
		// Only cancellation reaches here; the client is already gone.
		log.Printf("[download] resolve aborted: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !resolution.Succeeded() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"error": resolution.FailureReason,
			"jobId": resolution.JobID,
		})
		return
	}

	h.History.Append(payload.Title, resolution.DirectURL, resolution.JobID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(downloadResponse{
		DirectURL: resolution.DirectURL,
		JobID:     resolution.JobID,
	})
}

func (h *DownloadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(mux.Vars(r)["jobID"])
	if jobID == "" {
		http.Error(w, "job id is required", http.StatusBadRequest)
		return
	}

	h.Resolver.DeleteJob(r.Context(), jobID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DownloadHandler) acquire(session string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[session]; busy {
		return false
	}
	h.inFlight[session] = struct{}{}
	return true
}

func (h *DownloadHandler) release(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, session)
}
