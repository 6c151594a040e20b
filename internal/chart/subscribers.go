package chart

import "sync"

// subscribers is a registry of range-change callbacks.
type subscribers struct {
	mu     sync.Mutex
	fns    map[int]func(Range)
	nextID int
}

func (s *subscribers) add(fn func(Range)) func() {
	s.mu.Lock()
	if s.fns == nil {
		s.fns = make(map[int]func(Range))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify(r Range) {
	s.mu.Lock()
	fns := make([]func(Range), 0, len(s.fns))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(r)
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}
