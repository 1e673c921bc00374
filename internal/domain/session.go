package domain

import (
	"sync"

	"github.com/google/uuid"
)

// Session scopes one command sequence (one parsed block). It tracks
// which broker orders were placed under which tag, so a later command
// in the same sequence can address an earlier one (spec §3).
type Session struct {
	ID uuid.UUID

	mu   sync.Mutex
	tags map[string][]*BrokerOrder
}

// NewSession creates a session with a fresh UUID.
func NewSession() *Session {
	return &Session{ID: uuid.New(), tags: make(map[string][]*BrokerOrder)}
}

// Track records order under tag. An empty tag is still tracked, under
// the "" key, and is included in AllOrders.
func (s *Session) Track(tag string, order *BrokerOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag] = append(s.tags[tag], order)
}

// Replace swaps oldID for a new order under the same tag, used when a
// trailing order's price update returns a different broker order ID.
func (s *Session) Replace(tag string, oldID string, replacement *BrokerOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.tags[tag]
	for i, o := range list {
		if o.ID == oldID {
			list[i] = replacement
			return
		}
	}
	s.tags[tag] = append(list, replacement)
}

// OrdersByTag returns a copy of the orders tracked under tag.
func (s *Session) OrdersByTag(tag string) []*BrokerOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.tags[tag]
	out := make([]*BrokerOrder, len(src))
	copy(out, src)
	return out
}

// AllOrders returns every order tracked by this session, across tags.
func (s *Session) AllOrders() []*BrokerOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*BrokerOrder
	for _, list := range s.tags {
		out = append(out, list...)
	}
	return out
}
