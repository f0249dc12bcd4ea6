package helpers

// An insertion-ordered set of names. Iterating over a Go map is randomized,
// and every name set in the bundler ends up affecting the output somewhere,
// so the order names were first added is kept.
type NameSet struct {
	index map[string]struct{}
	names []string
}

func (s *NameSet) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

func (s *NameSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *NameSet) Len() int {
	return len(s.names)
}

// The returned slice must not be modified
func (s *NameSet) Names() []string {
	return s.names
}
