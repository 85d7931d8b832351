package localstate

import (
	"strings"
	"sync"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

// Memory keeps every namespace in process memory. State is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Namespace(ns string) quiz.LocalState {
	return &memoryNS{m: m, ns: ns}
}

func (m *Memory) Drop(ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns)
	return nil
}

func (m *Memory) Close() error { return nil }

type memoryNS struct {
	m  *Memory
	ns string
}

func (s *memoryNS) Get(key string) ([]byte, bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	v, ok := s.m.data[s.ns][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *memoryNS) Set(key string, value []byte) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.data[s.ns] == nil {
		s.m.data[s.ns] = make(map[string][]byte)
	}
	s.m.data[s.ns][key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryNS) Delete(key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.data[s.ns], key)
	return nil
}

func (s *memoryNS) Keys(prefix string) ([]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []string
	for k := range s.m.data[s.ns] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
