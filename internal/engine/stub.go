package engine

import "sync"

// Stub is one cell of a Generator.
type Stub struct {
	app  string
	idx  int
	code string

	mu     sync.RWMutex
	output Output
	built  bool
}

// Code returns the cell source.
func (s *Stub) Code() string {
	return s.code
}

// Index is the cell's position in its generator.
func (s *Stub) Index() int {
	return s.idx
}

// Output returns the cell output of the last build. The zero Output is
// returned before the first build.
func (s *Stub) Output() Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

// Built reports whether the cell has been executed.
func (s *Stub) Built() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.built
}

func (s *Stub) setOutput(o Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = o
	s.built = true
}
