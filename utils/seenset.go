package utils

// SeenSet tracks names already handled during a single extraction pass. The
// run is sequential, so no locking is needed.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Add returns true if the name was newly added, false if already present.
func (s *SeenSet) Add(name string) bool {
	if _, exists := s.seen[name]; exists {
		return false
	}
	s.seen[name] = struct{}{}
	return true
}

// Contains returns true if the name has already been handled.
func (s *SeenSet) Contains(name string) bool {
	_, exists := s.seen[name]
	return exists
}

// Size returns the number of unique names tracked.
func (s *SeenSet) Size() int {
	return len(s.seen)
}
