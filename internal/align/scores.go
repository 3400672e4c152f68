// Package align builds the all-vs-all alignment score table of a probe set
// with an external local aligner.
package align

import "context"

// Pair is an ordered pair of probe indices: the read (query) and the
// reference sequence it aligned to (target).
type Pair struct {
	Query  int
	Target int
}

// Scores caches the best local alignment score of probe pairs. Pairs the
// aligner never reported score 0.
type Scores struct {
	scores map[Pair]float64
}

// NewScores returns an empty score table.
func NewScores() *Scores {
	return &Scores{scores: make(map[Pair]float64)}
}

// Add records the score of a pair. Only the first score of a pair is kept,
// later ones are ignored. Returns whether the score was recorded.
func (s *Scores) Add(p Pair, score float64) bool {
	if _, ok := s.scores[p]; ok {
		return false
	}
	s.scores[p] = score
	return true
}

// Score returns the score of a pair. A pair not in the table is stored
// with a score of 0 and then returned.
func (s *Scores) Score(p Pair) float64 {
	score, ok := s.scores[p]
	if !ok {
		s.scores[p] = 0
	}
	return score
}

// Has returns whether the pair is in the table.
func (s *Scores) Has(p Pair) bool {
	_, ok := s.scores[p]
	return ok
}

// Len is the number of pairs in the table.
func (s *Scores) Len() int {
	return len(s.scores)
}

// Entry is a sequence to align, named by its stable index.
type Entry struct {
	Index int
	Seq   string
}

// Aligner aligns every entry, as a read, against every entry, as a reference.
type Aligner interface {
	AllVsAll(ctx context.Context, entries []Entry) (*Scores, error)
}
