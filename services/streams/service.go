package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Eduard289/cinematrix-cloud/models"
)

const maxResponseBytes = 4 << 20

var ErrIMDBIDRequired = errors.New("imdb id is required")

// Provider is one stream-indexing endpoint. URLTemplate contains a single
// %s placeholder for the canonical IMDB identifier.
type Provider struct {
	Name        string
	URLTemplate string
}

// Diagnostics receives per-attempt failure notes from the resolver. The
// default sink writes to the standard logger; pass a no-op to silence it.
type Diagnostics interface {
	Notef(format string, args ...any)
}

type logDiagnostics struct{}

func (logDiagnostics) Notef(format string, args ...any) {
	log.Printf("[streams] "+format, args...)
}

// NopDiagnostics discards resolver diagnostics.
type NopDiagnostics struct{}

func (NopDiagnostics) Notef(string, ...any) {}

// Config parameterizes the resolver's fallback chain. Mirrors are URL
// prefixes tried in order per provider; the empty string means a direct
// request. Direct attempts get the shorter timeout since they fail fast,
// relays are allowed more latency budget.
type Config struct {
	Providers     []Provider
	Mirrors       []string
	DirectTimeout time.Duration
	MirrorTimeout time.Duration
	Diagnostics   Diagnostics
}

// Service resolves a canonical IMDB identifier into stream candidates by
// walking the configured provider/mirror fallback chain. It is stateless;
// all session state lives with the caller.
type Service struct {
	cfg        Config
	httpClient *http.Client
	diag       Diagnostics
}

// NewService constructs a resolver. A nil client gets a transport without a
// client-level timeout; per-request deadlines come from the config.
func NewService(cfg Config, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.DirectTimeout <= 0 {
		cfg.DirectTimeout = 4 * time.Second
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = 8 * time.Second
	}
	if len(cfg.Mirrors) == 0 {
		cfg.Mirrors = []string{""}
	}
	diag := cfg.Diagnostics
	if diag == nil {
		diag = logDiagnostics{}
	}
	return &Service{cfg: cfg, httpClient: client, diag: diag}
}

// rawStreamResponse is the expected provider payload shape. Streams must be
// present for a response to count as a success.
type rawStreamResponse struct {
	Streams []rawStream `json:"streams"`
}

type rawStream struct {
	Title    string `json:"title"`
	Name     string `json:"name,omitempty"`
	InfoHash string `json:"infoHash"`
}

// Resolve queries every configured provider in order, trying each mirror in
// order until one yields a parseable response, and returns the aggregated
// normalized candidates. Network failures never surface as errors: the worst
// case is an empty slice. The returned error is reserved for caller misuse.
func (s *Service) Resolve(ctx context.Context, imdbID string) ([]models.StreamCandidate, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, ErrIMDBIDRequired
	}

	candidates := []models.StreamCandidate{}
	for _, provider := range s.cfg.Providers {
		target := fmt.Sprintf(provider.URLTemplate, imdbID)
		raw, ok := s.fetchThroughMirrors(ctx, provider.Name, target)
		if !ok {
			continue
		}
		candidates = append(candidates, s.normalize(provider.Name, raw)...)
	}
	return candidates, nil
}

// fetchThroughMirrors walks the mirror chain for one provider and returns the
// first parseable stream list. Stops at the first success so later mirrors
// are never queried for that provider.
func (s *Service) fetchThroughMirrors(ctx context.Context, providerName, target string) ([]rawStream, bool) {
	for _, mirror := range s.cfg.Mirrors {
		endpoint := target
		timeout := s.cfg.DirectTimeout
		if mirror != "" {
			endpoint = mirror + url.QueryEscape(target)
			timeout = s.cfg.MirrorTimeout
		}

		raw, err := s.fetchStreams(ctx, endpoint, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false
			}
			s.diag.Notef("provider %s via %q failed: %v", providerName, mirrorLabel(mirror), err)
			continue
		}
		return raw, true
	}
	return nil, false
}

func mirrorLabel(mirror string) string {
	if mirror == "" {
		return "direct"
	}
	return mirror
}

func (s *Service) fetchStreams(ctx context.Context, endpoint string, timeout time.Duration) ([]rawStream, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	// The streams field must be present: a 200 with a different JSON shape
	// (relay error pages tend to be 200s) counts as a failed attempt.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	rawStreams, ok := probe["streams"]
	if !ok {
		return nil, errors.New("response missing streams field")
	}

	var streams []rawStream
	if err := json.Unmarshal(rawStreams, &streams); err != nil {
		return nil, fmt.Errorf("decode streams: %w", err)
	}
	return streams, nil
}

// normalize converts raw provider streams into candidates, skipping entries
// with a missing or malformed info-hash without aborting the batch.
func (s *Service) normalize(providerName string, raw []rawStream) []models.StreamCandidate {
	out := make([]models.StreamCandidate, 0, len(raw))
	for _, stream := range raw {
		infoHash := strings.TrimSpace(stream.InfoHash)
		if !ValidInfoHash(infoHash) {
			s.diag.Notef("provider %s: skipping stream with bad info-hash %q", providerName, infoHash)
			continue
		}
		out = append(out, models.StreamCandidate{
			SourceProvider: providerName,
			DisplayTitle:   deriveDisplayTitle(stream.Title),
			Quality:        classifyQuality(stream.Title),
			SeedInfo:       extractSeedInfo(stream.Title),
			InfoHash:       infoHash,
		})
	}
	return out
}
