package filter

import (
	"errors"
	"fmt"

	"probefilt/internal/probe"
)

// ErrUnclassified is returned when filtering leaves a probe in neither or
// both of the kept and removed sets.
var ErrUnclassified = errors.New("probe was not classified")

// Reconcile splits probes, keeping their order, into the ones kept by the
// global pass and the ones removed by either pass.
func Reconcile(probes []probe.Probe, out *Outcome) (kept, removed []probe.Probe, err error) {
	var neither, both []int
	for _, p := range probes {
		isKept := out.Global.IsKept(p.Seq)
		isRemoved := out.Local.IsRemoved(p.Seq) || out.Global.IsRemoved(p.Seq)

		switch {
		case isKept && isRemoved:
			both = append(both, p.Index)
		case isKept:
			kept = append(kept, p)
		case isRemoved:
			removed = append(removed, p)
		default:
			neither = append(neither, p.Index)
		}
	}

	if len(neither) > 0 {
		return nil, nil, fmt.Errorf("%w: %d probes neither kept nor removed, rows %v", ErrUnclassified, len(neither), neither)
	}
	if len(both) > 0 {
		return nil, nil, fmt.Errorf("%w: %d probes both kept and removed, rows %v", ErrUnclassified, len(both), both)
	}
	return kept, removed, nil
}
