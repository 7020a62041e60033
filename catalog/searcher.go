package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
)

const DefaultSearchDelay = 300 * time.Millisecond

var ErrStale = errors.New("catalog: search superseded by a newer query")

type SearchFunc func(ctx context.Context, query string, limit int) []models.Product

// Searcher coalesces type-ahead queries. Only the last query submitted
// within the delay reaches the catalog, and a response is dropped when the
// query has changed while it was in flight.
type Searcher struct {
	search SearchFunc
	delay  time.Duration
	limit  int

	mu      sync.Mutex
	seq     uint64
	current string
}

func NewSearcher(search SearchFunc, delay time.Duration, limit int) *Searcher {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Searcher{search: search, delay: delay, limit: limit}
}

func (s *Searcher) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.seq++
	mine := s.seq
	s.current = query
	s.mu.Unlock()

	if query == "" {
		return []models.Product{}, nil
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	superseded := s.seq != mine
	s.mu.Unlock()
	if superseded {
		return nil, ErrStale
	}

	results := s.search(ctx, query, s.limit)

	s.mu.Lock()
	stale := s.current != query
	s.mu.Unlock()
	if stale {
		return nil, ErrStale
	}
	return results, nil
}

// Current is the latest query submitted.
func (s *Searcher) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
