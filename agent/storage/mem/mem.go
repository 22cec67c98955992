// Package mem implements the record store in process memory. It is the
// default for tests and for agents that don't need persistence.
package mem

import (
	"sync"

	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
)

type store struct {
	l       sync.RWMutex
	records map[string]api.Record
	order   []string // insertion order for stable Search results
}

func New() api.Storage {
	return &store{records: make(map[string]api.Record)}
}

func key(typ, id string) string {
	return typ + "|" + id
}

func (s *store) Add(r api.Record) error {
	s.l.Lock()
	defer s.l.Unlock()

	k := key(r.Type, r.ID)
	if _, ok := s.records[k]; !ok {
		s.order = append(s.order, k)
	}
	s.records[k] = r
	return nil
}

func (s *store) Get(typ, id string) (*api.Record, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	r, ok := s.records[key(typ, id)]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &r, nil
}

func (s *store) Update(r api.Record) error {
	s.l.Lock()
	defer s.l.Unlock()

	k := key(r.Type, r.ID)
	if _, ok := s.records[k]; !ok {
		return api.ErrNotFound
	}
	s.records[k] = r
	return nil
}

func (s *store) Delete(typ, id string) error {
	s.l.Lock()
	defer s.l.Unlock()

	k := key(typ, id)
	if _, ok := s.records[k]; !ok {
		return api.ErrNotFound
	}
	delete(s.records, k)
	for i, ok := range s.order {
		if ok == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *store) Search(typ string, tags map[string]string) ([]api.Record, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	found := make([]api.Record, 0)
	for _, k := range s.order {
		r := s.records[k]
		if r.Type == typ && api.TagsMatch(r.Tags, tags) {
			found = append(found, r)
		}
	}
	return found, nil
}
