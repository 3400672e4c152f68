package filter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"probefilt/internal/align"
	"probefilt/internal/probe"
)

// Orchestrator filters probes within each region and then across all the
// regions' survivors.
type Orchestrator struct {
	Decider *Decider

	// Scores of all probe pairs, shared by both passes
	Scores *align.Scores

	// Local is the drop threshold within a region
	Local float64

	// Global is the drop threshold across regions
	Global float64

	Log logrus.FieldLogger

	// Progress is where progress bars are rendered, none if nil
	Progress io.Writer
}

// Outcome is the kept and removed sets of both passes.
type Outcome struct {
	// Local has the sets of the within-region pass
	Local *Sets

	// Global has the sets of the across-region pass
	Global *Sets

	LocalStats  Stats
	GlobalStats Stats

	// Survivors is the number of probes the local pass handed to the global pass
	Survivors int
}

// Run filters the probes, in order, within each region and then filters the
// probes kept in any region against each other. Probes are expected to be
// unique by sequence and in the order they should be evaluated.
func (o *Orchestrator) Run(ctx context.Context, probes []probe.Probe) (*Outcome, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	bars := newProgress(o.Progress)
	defer bars.wait()

	out := &Outcome{Local: NewSets(), Global: NewSets()}

	start := time.Now()
	local := &Eliminator{
		Decider:   o.Decider,
		Scores:    o.Scores,
		Threshold: o.Local,
		advance:   bars.bar("local", len(probes)),
	}
	regions := probe.Regions(probes)
	for _, region := range regions {
		stats, err := local.Eliminate(ctx, region.Probes, out.Local)
		out.LocalStats.add(stats)
		if err != nil {
			return nil, fmt.Errorf("failed to filter region %s: %w", region.Region, err)
		}

		log.WithFields(logrus.Fields{
			"phase":   "local",
			"region":  region.Region,
			"probes":  len(region.Probes),
			"removed": stats.Dropped,
		}).Debug("filtered region")
	}
	log.WithFields(logrus.Fields{
		"phase":   "local",
		"regions": len(regions),
		"kept":    out.Local.Kept(),
		"removed": out.Local.Removed(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("filtered probes within regions")

	survivors := make([]probe.Probe, 0, out.Local.Kept())
	for _, p := range probes {
		if out.Local.IsKept(p.Seq) {
			survivors = append(survivors, p)
		}
	}
	out.Survivors = len(survivors)

	start = time.Now()
	global := &Eliminator{
		Decider:   o.Decider,
		Scores:    o.Scores,
		Threshold: o.Global,
		advance:   bars.bar("global", len(survivors)),
	}
	stats, err := global.Eliminate(ctx, survivors, out.Global)
	out.GlobalStats = stats
	if err != nil {
		return nil, fmt.Errorf("failed to filter across regions: %w", err)
	}
	log.WithFields(logrus.Fields{
		"phase":   "global",
		"probes":  len(survivors),
		"kept":    out.Global.Kept(),
		"removed": out.Global.Removed(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("filtered probes across regions")

	return out, nil
}
