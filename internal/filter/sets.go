package filter

// Sets are the probe sequences kept and removed during one filtering pass.
// They only grow.
type Sets struct {
	kept    map[string]struct{}
	removed map[string]struct{}
}

// NewSets returns empty kept and removed sets.
func NewSets() *Sets {
	return &Sets{
		kept:    make(map[string]struct{}),
		removed: make(map[string]struct{}),
	}
}

// Keep adds a sequence to the kept set.
func (s *Sets) Keep(seq string) {
	s.kept[seq] = struct{}{}
}

// Remove adds a sequence to the removed set.
func (s *Sets) Remove(seq string) {
	s.removed[seq] = struct{}{}
}

// IsKept returns whether the sequence was kept.
func (s *Sets) IsKept(seq string) bool {
	_, ok := s.kept[seq]
	return ok
}

// IsRemoved returns whether the sequence was removed.
func (s *Sets) IsRemoved(seq string) bool {
	_, ok := s.removed[seq]
	return ok
}

// Kept is the size of the kept set.
func (s *Sets) Kept() int {
	return len(s.kept)
}

// Removed is the size of the removed set.
func (s *Sets) Removed() int {
	return len(s.removed)
}
