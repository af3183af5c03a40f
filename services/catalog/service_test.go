package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "search=The%20Matrix.json") {
			t.Errorf("query not escaped into path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"metas":[
			{"imdb_id":"tt0133093","name":"The Matrix","releaseInfo":"1999"},
			{"imdb_id":"","name":"No ID Entry"},
			{"imdb_id":"tt0234215","name":"The Matrix Reloaded","releaseInfo":"2003"}
		]}`))
	}))
	defer srv.Close()

	svc := NewService(srv.URL+"/catalog/movie/top/search=%s.json", 0, srv.Client())
	entries, err := svc.Search(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (no-ID entry dropped), got %d", len(entries))
	}
	if entries[0].ImdbID != "tt0133093" || entries[0].ReleaseInfo != "1999" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
}

func TestSearchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewService(srv.URL+"/search=%s.json", 0, srv.Client())
	if _, err := svc.Search(context.Background(), "anything"); err == nil {
		t.Fatalf("expected error on non-200")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewService("https://example.com/search=%s.json", 0, nil)
	if _, err := svc.Search(context.Background(), "   "); err != ErrQueryRequired {
		t.Fatalf("expected ErrQueryRequired, got %v", err)
	}
}
