package report

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/quant-edge/internal/models"
)

const latestKey = "latest"

// Store keeps finished reports in memory for the API. Only terminal reports
// are stored; nothing a run computes on the way is cached.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration

	mu     sync.RWMutex
	hits   uint64
	misses uint64
}

// NewStore creates a store whose entries expire after ttl. A non-positive ttl
// keeps entries until they are replaced.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl * 2
	if ttl == cache.NoExpiration {
		cleanup = 0
	}
	return &Store{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Put records r as the latest report and as the report for its run date.
func (s *Store) Put(r *models.Report) {
	if r == nil {
		return
	}
	s.cache.Set(latestKey, r, s.ttl)
	s.cache.Set(r.RunDate.String(), r, s.ttl)
}

// Latest returns the most recently stored report.
func (s *Store) Latest() (*models.Report, bool) {
	return s.get(latestKey)
}

// ForDate returns the stored report for date.
func (s *Store) ForDate(date models.Date) (*models.Report, bool) {
	return s.get(date.String())
}

func (s *Store) get(key string) (*models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, found := s.cache.Get(key); found {
		if r, ok := v.(*models.Report); ok {
			s.hits++
			return r, true
		}
	}
	s.misses++
	return nil, false
}

// Clear drops every stored report.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Flush()
	s.hits = 0
	s.misses = 0
}

// Stats returns lookup counts and the hit ratio.
func (s *Store) Stats() (hits, misses uint64, ratio float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits = s.hits
	misses = s.misses
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
