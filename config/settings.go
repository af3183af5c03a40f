package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server       ServerSettings       `json:"server"`
	Access       AccessSettings       `json:"access"`
	Catalog      CatalogSettings      `json:"catalog"`
	Resolver     ResolverSettings     `json:"resolver"`
	Debrid       DebridSettings       `json:"debrid"`
	Orchestrator OrchestratorSettings `json:"orchestrator"`
	Log          LogConfig            `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AccessSettings holds the shared password gating the whole application.
// An empty password is replaced with a generated one at startup.
type AccessSettings struct {
	Password        string `json:"password"`
	SessionTTLHours int    `json:"sessionTtlHours"`
}

// CatalogSettings points at the metadata catalog used to map free-text
// queries to canonical IMDB identifiers.
type CatalogSettings struct {
	SearchURL  string `json:"searchUrl"` // %s is replaced with the escaped query
	TimeoutSec int    `json:"timeoutSec"`
}

// ProviderConfig describes one stream-indexing endpoint. URLTemplate contains
// a single %s placeholder for the canonical IMDB identifier.
type ProviderConfig struct {
	Name        string `json:"name"`
	URLTemplate string `json:"urlTemplate"`
	Enabled     bool   `json:"enabled"`
}

// ResolverSettings configures the provider/mirror fallback chain.
// Mirrors are URL prefixes; the empty string means a direct request.
type ResolverSettings struct {
	Providers        []ProviderConfig `json:"providers"`
	Mirrors          []string         `json:"mirrors"`
	DirectTimeoutSec int              `json:"directTimeoutSec"`
	MirrorTimeoutSec int              `json:"mirrorTimeoutSec"`
}

// DebridSettings configures the remote debrid service account.
type DebridSettings struct {
	BaseURL    string `json:"baseUrl"`
	APIToken   string `json:"apiToken"`
	TimeoutSec int    `json:"timeoutSec"`
}

// OrchestratorSettings bounds the remote-job polling loop.
type OrchestratorSettings struct {
	PollIntervalMs int `json:"pollIntervalMs"`
	MaxAttempts    int `json:"maxAttempts"`
}

// LogConfig represents file logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7878},
		Access: AccessSettings{Password: "", SessionTTLHours: 24},
		Catalog: CatalogSettings{
			SearchURL:  "https://v3-cinemeta.strem.io/catalog/movie/top/search=%s.json",
			TimeoutSec: 5,
		},
		Resolver: ResolverSettings{
			Providers: []ProviderConfig{
				{Name: "torrentio", URLTemplate: "https://torrentio.strem.fun/stream/movie/%s.json", Enabled: true},
			},
			Mirrors: []string{
				"",
				"https://api.allorigins.win/raw?url=",
				"https://corsproxy.io/?",
			},
			DirectTimeoutSec: 4,
			MirrorTimeoutSec: 8,
		},
		Debrid: DebridSettings{
			BaseURL:    "https://api.real-debrid.com/rest/1.0",
			APIToken:   "",
			TimeoutSec: 30,
		},
		Orchestrator: OrchestratorSettings{
			PollIntervalMs: 1000,
			MaxAttempts:    15,
		},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for settings introduced after the config was written.
	defaults := DefaultSettings()

	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Access.SessionTTLHours == 0 {
		s.Access.SessionTTLHours = defaults.Access.SessionTTLHours
	}
	if strings.TrimSpace(s.Catalog.SearchURL) == "" {
		s.Catalog.SearchURL = defaults.Catalog.SearchURL
	}
	if s.Catalog.TimeoutSec == 0 {
		s.Catalog.TimeoutSec = defaults.Catalog.TimeoutSec
	}
	if len(s.Resolver.Providers) == 0 {
		s.Resolver.Providers = defaults.Resolver.Providers
	}
	if s.Resolver.Mirrors == nil {
		s.Resolver.Mirrors = defaults.Resolver.Mirrors
	}
	if s.Resolver.DirectTimeoutSec == 0 {
		s.Resolver.DirectTimeoutSec = defaults.Resolver.DirectTimeoutSec
	}
	if s.Resolver.MirrorTimeoutSec == 0 {
		s.Resolver.MirrorTimeoutSec = defaults.Resolver.MirrorTimeoutSec
	}
	if strings.TrimSpace(s.Debrid.BaseURL) == "" {
		s.Debrid.BaseURL = defaults.Debrid.BaseURL
	}
	if s.Debrid.TimeoutSec == 0 {
		s.Debrid.TimeoutSec = defaults.Debrid.TimeoutSec
	}
	if s.Orchestrator.PollIntervalMs == 0 {
		s.Orchestrator.PollIntervalMs = defaults.Orchestrator.PollIntervalMs
	}
	if s.Orchestrator.MaxAttempts == 0 {
		s.Orchestrator.MaxAttempts = defaults.Orchestrator.MaxAttempts
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = defaults.Log.File
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
