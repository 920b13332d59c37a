package banner

import (
	"sync"

	"github.com/gravitrone/bannerdesk/internal/api"
)

// Store is the shared banner cache every view reads from. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	order   []string
	items   map[string]api.Banner
	version uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: map[string]api.Banner{}}
}

// Replace swaps the store contents for items, keeping their order.
func (s *Store) Replace(items []api.Banner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.items = make(map[string]api.Banner, len(items))
	for _, b := range items {
		if _, seen := s.items[b.ID]; !seen {
			s.order = append(s.order, b.ID)
		}
		s.items[b.ID] = b
	}
	s.version++
}

// UpdateInState stores b, replacing any banner with the same id in place.
// Unknown ids are appended.
func (s *Store) UpdateInState(b api.Banner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]api.Banner{}
	}
	if _, ok := s.items[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.items[b.ID] = b
	s.version++
}

// Get returns the banner with id.
func (s *Store) Get(id string) (api.Banner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[id]
	return b, ok
}

// List returns all banners in insertion order.
func (s *Store) List() []api.Banner {
	return s.ListByPage("")
}

// PageOf returns the page a banner is shown on. Banners without one sit on
// the top page.
func PageOf(b api.Banner) string {
	if b.Page == "" {
		return api.PageTop
	}
	return b.Page
}

// ListByPage returns the banners shown on page. An empty page matches all.
func (s *Store) ListByPage(page string) []api.Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Banner, 0, len(s.order))
	for _, id := range s.order {
		b := s.items[id]
		if page != "" && PageOf(b) != page {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Len returns the number of stored banners.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
