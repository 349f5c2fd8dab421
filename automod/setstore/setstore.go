package setstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"sync"
)

// Named sets of strings, such as the banned word list.
type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
	Values(ctx context.Context, name string) ([]string, error)
}

type MemSetStore struct {
	mu   sync.RWMutex
	Sets map[string]map[string]bool
}

func NewMemSetStore() *MemSetStore {
	return &MemSetStore{
		Sets: make(map[string]map[string]bool),
	}
}

func (s *MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.Sets[name]
	if !ok {
		// NOTE: currently returns false when entire set isn't found
		return false, nil
	}
	_, ok = set[val]
	return ok, nil
}

// Returns the members of the named set in sorted order. Unknown sets are empty.
func (s *MemSetStore) Values(ctx context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.Sets[name]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Adds values to the named set, creating it if needed.
func (s *MemSetStore) Add(name string, vals ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Sets[name]
	if !ok {
		m = make(map[string]bool, len(vals))
		s.Sets[name] = m
	}
	for _, v := range vals {
		if v == "" {
			continue
		}
		m[v] = true
	}
}

// Loads a JSON object of set name to list of values. Sets present in the file replace any existing set of the same name.
func (s *MemSetStore) LoadFromFileJSON(p string) error {

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var rules map[string][]string
	if err := json.Unmarshal(raw, &rules); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, l := range rules {
		m := make(map[string]bool, len(l))
		for _, val := range l {
			m[val] = true
		}
		s.Sets[name] = m
	}
	return nil
}
