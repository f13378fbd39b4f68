// Package panel holds the client's view models: the URL submission form, the
// site roster, the chat panel, the status panel and the shared selection.
// Every type is safe for concurrent use. Callbacks are always invoked without
// any panel lock held.
package panel

import (
	"context"
	"sync"
	"time"

	"github.com/liliang-cn/webchat/internal/domain"
)

// ScrapeAPI is the backend surface the submission form needs
type ScrapeAPI interface {
	Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error)
}

// WebsiteAPI is the backend surface the roster needs
type WebsiteAPI interface {
	ListWebsites(ctx context.Context) ([]domain.Site, error)
	DeleteVectorizedData(ctx context.Context, vectorDBID domain.ID) (*domain.DeleteResult, error)
}

// ChatAPI is the backend surface the chat panel needs
type ChatAPI interface {
	Chat(ctx context.Context, vectorDBID domain.ID, query string) (*domain.ChatAnswer, error)
}

// StatusAPI is the backend surface the status panel needs
type StatusAPI interface {
	SystemInfo(ctx context.Context) (*domain.SystemInfo, error)
}

// idSequence hands out strictly increasing nanosecond timestamps
type idSequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (s *idSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}
