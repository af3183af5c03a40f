package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/Eduard289/cinematrix-cloud/handlers"
	"github.com/Eduard289/cinematrix-cloud/models"
	"github.com/Eduard289/cinematrix-cloud/services/streams"
)

type fakeStreamResolver struct {
	candidates []models.StreamCandidate
	err        error
	imdbID     string
}

func (f *fakeStreamResolver) Resolve(ctx context.Context, imdbID string) ([]models.StreamCandidate, error) {
	f.imdbID = imdbID
	return f.candidates, f.err
}

func streamsRouter(h *handlers.StreamsHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/streams/{imdbID}", h.List).Methods(http.MethodGet)
	return router
}

func TestStreamsHandler_List(t *testing.T) {
	svc := &fakeStreamResolver{candidates: []models.StreamCandidate{
		{
			SourceProvider: "torrentio",
			DisplayTitle:   "Some.Movie.2160p",
			Quality:        models.Quality4KUHD,
			SeedInfo:       "👤 42",
			InfoHash:       testHash,
		},
	}}
	h := handlers.NewStreamsHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/streams/tt0133093", nil)
	rec := httptest.NewRecorder()
	streamsRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.imdbID != "tt0133093" {
		t.Fatalf("expected imdb id forwarded, got %q", svc.imdbID)
	}
	var candidates []models.StreamCandidate
	if err := json.NewDecoder(rec.Body).Decode(&candidates); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Quality != models.Quality4KUHD {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestStreamsHandler_ListMissingID(t *testing.T) {
	h := handlers.NewStreamsHandler(&fakeStreamResolver{err: streams.ErrIMDBIDRequired})

	// Routed directly so the path variable stays empty.
	req := httptest.NewRequest(http.MethodGet, "/api/streams/", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStreamsHandler_EmptyResultIsValidJSON(t *testing.T) {
	h := handlers.NewStreamsHandler(&fakeStreamResolver{candidates: []models.StreamCandidate{}})

	req := httptest.NewRequest(http.MethodGet, "/api/streams/tt0000001", nil)
	rec := httptest.NewRecorder()
	streamsRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}
