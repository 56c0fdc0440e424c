package capability

import (
	"sort"
	"sync"
)

// Set is the result of a probe. It is read-only after construction.
type Set struct {
	mu      sync.RWMutex
	goos    string
	entries map[Name]Entry
}

// NewSet builds a Set from probe entries. Intended for the Prober and for tests.
func NewSet(goos string, entries ...Entry) *Set {
	s := &Set{
		goos:    goos,
		entries: make(map[Name]Entry, len(entries)),
	}
	for _, e := range entries {
		s.entries[e.Name] = e
	}
	return s
}

// GOOS returns the platform the Set was probed for.
func (s *Set) GOOS() string {
	return s.goos
}

// Get returns the entry for a capability.
func (s *Set) Get(name Name) (Entry, bool) {
	if s == nil {
		return Entry{Name: name}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return Entry{Name: name}, false
	}
	return copyEntry(e), true
}

// Available reports whether the capability has at least one usable Method.
func (s *Set) Available(name Name) bool {
	e, _ := s.Get(name)
	return e.Available()
}

// Methods returns a copy of the usable Methods for a capability in preference order.
func (s *Set) Methods(name Name) []Method {
	e, _ := s.Get(name)
	return e.Methods
}

// Path returns the resolved absolute path of an executable probed for name,
// or the bare executable when it was not recorded.
func (s *Set) Path(name Name, executable string) string {
	e, _ := s.Get(name)
	if p, ok := e.Paths[executable]; ok && p != "" {
		return p
	}
	return executable
}

// Report returns every entry, known capabilities first in display order.
func (s *Set) Report() []Entry {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.entries))
	known := make(map[Name]bool, len(All))
	for _, n := range All {
		known[n] = true
		if e, ok := s.entries[n]; ok {
			result = append(result, copyEntry(e))
		}
	}
	var extra []Name
	for n := range s.entries {
		if !known[n] {
			extra = append(extra, n)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, n := range extra {
		result = append(result, copyEntry(s.entries[n]))
	}
	return result
}

func copyEntry(e Entry) Entry {
	out := Entry{Name: e.Name}
	out.Methods = append([]Method(nil), e.Methods...)
	out.Missing = append([]string(nil), e.Missing...)
	if e.Paths != nil {
		out.Paths = make(map[string]string, len(e.Paths))
		for k, v := range e.Paths {
			out.Paths[k] = v
		}
	}
	return out
}
