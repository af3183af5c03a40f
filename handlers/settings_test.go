package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Eduard289/cinematrix-cloud/config"
	"github.com/Eduard289/cinematrix-cloud/handlers"
)

func TestSettingsHandler_RoundTrip(t *testing.T) {
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	h := handlers.NewSettingsHandler(manager)

	rec := httptest.NewRecorder()
	h.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var current config.Settings
	if err := json.NewDecoder(rec.Body).Decode(&current); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if current.Server.Port != config.DefaultSettings().Server.Port {
		t.Fatalf("expected default port on first load, got %d", current.Server.Port)
	}

	current.Debrid.APIToken = "rd-token"
	body, _ := json.Marshal(current)
	rec = httptest.NewRecorder()
	h.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d", rec.Code)
	}

	saved, err := manager.Load()
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if saved.Debrid.APIToken != "rd-token" {
		t.Fatalf("expected token persisted, got %q", saved.Debrid.APIToken)
	}
}

func TestSettingsHandler_PutRejectsBadJSON(t *testing.T) {
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	h := handlers.NewSettingsHandler(manager)

	rec := httptest.NewRecorder()
	h.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
