package server

import (
	"sync"

	"github.com/alnah/go-qmarimo/internal/engine"
	"github.com/alnah/go-qmarimo/internal/quarto"
)

// app is one document being rendered.
type app struct {
	gen *engine.Generator

	mu      sync.Mutex
	options quarto.Options // set by /execute
}

func (a *app) setOptions(opts quarto.Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.options = opts
}

// globalOptions returns the defaults overlaid with the document options.
func (a *app) globalOptions() quarto.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return quarto.Merge(quarto.DefaultOptions(), a.options)
}

// entry is a posted cell awaiting lookup.
type entry struct {
	appID string
	app   *app
	stub  *engine.Stub
	opts  quarto.Options
}

// store holds apps and entries. All access goes through its mutex.
type store struct {
	mu      sync.Mutex
	apps    map[string]*app
	entries map[string]entry
	newGen  func() *engine.Generator
}

func newStore(newGen func() *engine.Generator) *store {
	return &store{
		apps:    make(map[string]*app),
		entries: make(map[string]entry),
		newGen:  newGen,
	}
}

// appFor returns the app with id, creating it if needed.
func (s *store) appFor(id string) *app {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		a = &app{gen: s.newGen()}
		s.apps[id] = a
	}
	return a
}

func (s *store) app(id string) (*app, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	return a, ok
}

func (s *store) put(key string, e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
}

// take removes and returns the entry for key.
func (s *store) take(key string) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return e, ok
}

// flush removes an app and its unread entries and returns the app.
func (s *store) flush(id string) (*app, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	delete(s.apps, id)
	for key, e := range s.entries {
		if e.appID == id {
			delete(s.entries, key)
		}
	}
	return a, ok
}

// counts reports the number of live apps and entries.
func (s *store) counts() (apps, entries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps), len(s.entries)
}
