package filter

import (
	"context"

	"probefilt/internal/align"
	"probefilt/internal/probe"
)

// Stats counts the work of one or more eliminations.
type Stats struct {
	// Rounds is the number of probes that were a head
	Rounds int

	// Comparisons is the number of head/compare pairs scored
	Comparisons int

	// Dropped is the number of probes removed
	Dropped int
}

// add the counts of another elimination
func (s *Stats) add(o Stats) {
	s.Rounds += o.Rounds
	s.Comparisons += o.Comparisons
	s.Dropped += o.Dropped
}

// Eliminator greedily filters a group of probes. Earlier probes in a group
// win over later ones.
type Eliminator struct {
	Decider *Decider

	// Scores of probe pairs, shared across groups and passes
	Scores *align.Scores

	// Threshold at or above which a compare probe is dropped
	Threshold float64

	// advance is called with the number of probes that left the working list
	advance func(n int)
}

// Eliminate filters a group in order. The first probe of the working list
// is kept and every later probe that scores against it at or above the
// threshold is removed; the first probe then leaves the list and the next
// survivor takes its place. Every probe of the group ends up in exactly one
// of the sets, which are shared by all the groups of a pass.
func (e *Eliminator) Eliminate(ctx context.Context, group []probe.Probe, sets *Sets) (Stats, error) {
	var stats Stats
	list := append([]probe.Probe(nil), group...)

	for len(list) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		head, rest := list[0], list[1:]
		stats.Rounds++

		survivors := rest[:0]
		if len(rest) > 0 {
			values, err := e.Decider.Row(head, rest, e.Scores)
			if err != nil {
				return stats, err
			}
			stats.Comparisons += len(rest)

			for i, compare := range rest {
				if Drop(values[i], e.Threshold) {
					sets.Remove(compare.Seq)
					stats.Dropped++
					continue
				}
				survivors = append(survivors, compare)
			}
		}

		sets.Keep(head.Seq)
		if e.advance != nil {
			e.advance(len(list) - len(survivors))
		}
		list = survivors
	}

	return stats, nil
}
