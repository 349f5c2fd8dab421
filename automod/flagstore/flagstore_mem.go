package flagstore

import (
	"sort"
	"sync"
)

type MemFlagStore struct {
	mu   sync.RWMutex
	data map[string]map[string]bool
}

func NewMemFlagStore() *MemFlagStore {
	return &MemFlagStore{
		data: make(map[string]map[string]bool),
	}
}

func (s *MemFlagStore) Add(guildID string, memberIDs ...string) {
	if len(memberIDs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.data[guildID]
	if !ok {
		set = make(map[string]bool)
		s.data[guildID] = set
	}
	for _, id := range memberIDs {
		set[id] = true
	}
}

// Returns a sorted copy of the guild's flagged member IDs
func (s *MemFlagStore) Get(guildID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.data[guildID]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *MemFlagStore) Has(guildID, memberID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[guildID][memberID]
}
