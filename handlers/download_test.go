package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Eduard289/cinematrix-cloud/handlers"
	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/debrid"
)

const testHash = "abcdef0123456789abcdef0123456789abcdef01"

type fakeLinkResolver struct {
	resolution *debrid.Resolution
	err        error
	blockUntil chan struct{}

	mu      sync.Mutex
	magnets []string
	deleted []string
}

func (f *fakeLinkResolver) ResolveDirectLink(ctx context.Context, magnet string) (*debrid.Resolution, error) {
	f.mu.Lock()
	f.magnets = append(f.magnets, magnet)
	f.mu.Unlock()
	if f.blockUntil != nil {
		select {
		case <-f.blockUntil:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resolution, f.err
}

func (f *fakeLinkResolver) DeleteJob(ctx context.Context, jobID string) {
	f.mu.Lock()
	f.deleted = append(f.deleted, jobID)
	f.mu.Unlock()
}

func (f *fakeLinkResolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.magnets)
}

type fakeHistoryRecorder struct {
	appended []models.HistoryItem
}

func (f *fakeHistoryRecorder) Append(title, directURL, remoteJobID string) models.HistoryItem {
	item := models.HistoryItem{Title: title, DirectURL: directURL, RemoteJobID: remoteJobID}
	f.appended = append(f.appended, item)
	return item
}

func startRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/downloads", bytes.NewBufferString(body))
	req.Header.Set("X-Session-Token", "tok-1")
	return req
}

func TestDownloadHandler_StartSuccess(t *testing.T) {
	resolver := &fakeLinkResolver{
		resolution: &debrid.Resolution{DirectURL: "https://dl.example/file.mkv", JobID: "job-7"},
	}
	history := &fakeHistoryRecorder{}
	h := handlers.NewDownloadHandler(resolver, history)

	rec := httptest.NewRecorder()
	h.Start(rec, startRequest(`{"infoHash":"`+testHash+`","title":"Some Movie"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		DirectURL string `json:"directUrl"`
		JobID     string `json:"jobId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DirectURL != "https://dl.example/file.mkv" || resp.JobID != "job-7" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(resolver.magnets) != 1 {
		t.Fatalf("expected one magnet submitted, got %d", len(resolver.magnets))
	}
	want := "magnet:?xt=urn:btih:" + testHash + "&dn=Some+Movie"
	if resolver.magnets[0] != want {
		t.Fatalf("magnet mismatch:\n got %q\nwant %q", resolver.magnets[0], want)
	}

	if len(history.appended) != 1 {
		t.Fatalf("expected one history item, got %d", len(history.appended))
	}
	if history.appended[0].RemoteJobID != "job-7" {
		t.Fatalf("expected job id recorded, got %+v", history.appended[0])
	}
}

func TestDownloadHandler_StartFailureIs502(t *testing.T) {
	resolver := &fakeLinkResolver{
		resolution: &debrid.Resolution{JobID: "job-3", FailureReason: "no link produced"},
	}
	history := &fakeHistoryRecorder{}
	h := handlers.NewDownloadHandler(resolver, history)

	rec := httptest.NewRecorder()
	h.Start(rec, startRequest(`{"infoHash":"`+testHash+`","title":"Busted"}`))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "no link produced" || resp["jobId"] != "job-3" {
		t.Fatalf("unexpected failure payload: %v", resp)
	}
	if len(history.appended) != 0 {
		t.Fatalf("failed download must not be recorded, got %d items", len(history.appended))
	}
}

func TestDownloadHandler_StartRejectsBadInfoHash(t *testing.T) {
	resolver := &fakeLinkResolver{}
	h := handlers.NewDownloadHandler(resolver, &fakeHistoryRecorder{})

	rec := httptest.NewRecorder()
	h.Start(rec, startRequest(`{"infoHash":"not-a-hash","title":"x"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(resolver.magnets) != 0 {
		t.Fatalf("resolver must not be called for a bad hash")
	}
}

func TestDownloadHandler_SecondConcurrentDownloadConflicts(t *testing.T) {
	resolver := &fakeLinkResolver{
		resolution: &debrid.Resolution{DirectURL: "https://dl.example/a.mkv", JobID: "job-1"},
		blockUntil: make(chan struct{}),
	}
	h := handlers.NewDownloadHandler(resolver, &fakeHistoryRecorder{})

	firstDone := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.Start(rec, startRequest(`{"infoHash":"`+testHash+`","title":"first"}`))
		firstDone <- rec.Code
	}()

	// Wait for the first request to hit the resolver.
	deadline := time.After(2 * time.Second)
	for {
		if resolver.calls() > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first download never reached the resolver")
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec := httptest.NewRecorder()
	h.Start(rec, startRequest(`{"infoHash":"`+testHash+`","title":"second"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for concurrent download, got %d", rec.Code)
	}

	close(resolver.blockUntil)
	if code := <-firstDone; code != http.StatusOK {
		t.Fatalf("first download should still succeed, got %d", code)
	}

	// The slot frees up once the first download finishes.
	rec = httptest.NewRecorder()
	h.Start(rec, startRequest(`{"infoHash":"`+testHash+`","title":"third"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after slot released, got %d", rec.Code)
	}
}

func TestDownloadHandler_Delete(t *testing.T) {
	resolver := &fakeLinkResolver{}
	h := handlers.NewDownloadHandler(resolver, &fakeHistoryRecorder{})

	router := mux.NewRouter()
	router.HandleFunc("/api/downloads/{jobID}", h.Delete).Methods(http.MethodDelete)

	req := httptest.NewRequest(http.MethodDelete, "/api/downloads/job-4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(resolver.deleted) != 1 || resolver.deleted[0] != "job-4" {
		t.Fatalf("expected job-4 deleted, got %v", resolver.deleted)
	}
}
