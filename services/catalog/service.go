package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Eduard289/cinematrix-cloud/models"
)

var ErrQueryRequired = errors.New("search query is required")

// Service maps a free-text movie query to canonical catalog entries via a
// Cinemeta-style search endpoint. A single unconditional GET: transport
// problems surface as errors, the resolver fallback machinery lives
// elsewhere.
type Service struct {
	searchURL  string // contains one %s placeholder for the escaped query
	httpClient *http.Client
}

func NewService(searchURL string, timeout time.Duration, client *http.Client) *Service {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Service{searchURL: searchURL, httpClient: client}
}

type searchResponse struct {
	Metas []struct {
		ImdbID      string `json:"imdb_id"`
		Name        string `json:"name"`
		ReleaseInfo string `json:"releaseInfo"`
	} `json:"metas"`
}

// Search returns catalog entries matching the query. Entries without an
// IMDB identifier are dropped since nothing downstream can use them.
func (s *Service) Search(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	endpoint := fmt.Sprintf(s.searchURL, url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	entries := make([]models.CatalogEntry, 0, len(payload.Metas))
	for _, meta := range payload.Metas {
		imdbID := strings.TrimSpace(meta.ImdbID)
		if imdbID == "" {
			continue
		}
		name := strings.TrimSpace(meta.Name)
		if name == "" {
			name = imdbID
		}
		entries = append(entries, models.CatalogEntry{
			ImdbID:      imdbID,
			Name:        name,
			ReleaseInfo: strings.TrimSpace(meta.ReleaseInfo),
		})
	}
	return entries, nil
}
