package history

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/Eduard289/cinematrix-cloud/models"
)

var ErrItemNotFound = errors.New("history item not found")

// JobDeleter removes a finished job from the debrid cloud. Deletion is a
// cleanup convenience, never required for correctness.
type JobDeleter interface {
	DeleteJob(ctx context.Context, jobID string)
}

// Service keeps the session-scoped list of successful resolutions. State is
// in-memory only and dies with the process. The core resolver/orchestrator
// stay stateless; this is their append-only output sink.
type Service struct {
	mu      sync.RWMutex
	items   []models.HistoryItem
	deleter JobDeleter
}

func NewService(deleter JobDeleter) *Service {
	return &Service{deleter: deleter}
}

// Append records a successful resolution and returns the stored item.
func (s *Service) Append(title, directURL, remoteJobID string) models.HistoryItem {
	item := models.HistoryItem{
		ID:          uuid.NewString(),
		Title:       title,
		DirectURL:   directURL,
		RemoteJobID: remoteJobID,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()

	log.Printf("[history] recorded %q (job %s)", title, remoteJobID)
	return item
}

// List returns the session's items, newest first.
func (s *Service) List() []models.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HistoryItem, len(s.items))
	for i, item := range s.items {
		out[len(s.items)-1-i] = item
	}
	return out
}

// Delete removes one item and fires a best-effort remote job deletion.
func (s *Service) Delete(ctx context.Context, itemID string) error {
	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	if removed.RemoteJobID != "" && s.deleter != nil {
		s.deleter.DeleteJob(ctx, removed.RemoteJobID)
	}
	return nil
}

// Purge clears the whole session history, deleting the remote jobs in
// parallel since none of them depends on another.
func (s *Service) Purge(ctx context.Context) int {
	s.mu.Lock()
	purged := s.items
	s.items = nil
	s.mu.Unlock()

	if s.deleter != nil {
		var wg conc.WaitGroup
		for _, item := range purged {
			if item.RemoteJobID == "" {
				continue
			}
			jobID := item.RemoteJobID
			wg.Go(func() {
				s.deleter.DeleteJob(ctx, jobID)
			})
		}
		wg.Wait()
	}
	return len(purged)
}
