// Package pipeline runs the probe filter from an input table to the output
// tables.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"probefilt/config"
	"probefilt/internal/align"
	"probefilt/internal/filter"
	"probefilt/internal/lda"
	"probefilt/internal/probe"
)

// Pipeline is a single filtering run.
type Pipeline struct {
	Conf *config.Config

	// Aligner scores every probe pair
	Aligner align.Aligner

	Log logrus.FieldLogger

	// Progress is where progress bars are rendered, none if nil
	Progress io.Writer
}

// Result is what a run kept and removed, and where it was written.
type Result struct {
	// Kept probes, in processing order
	Kept []probe.Probe

	// Removed probes, in processing order
	Removed []probe.Probe

	// Output is the path of the kept probe table
	Output string

	// RemovedOutput is the path of the removed probe table, empty if not written
	RemovedOutput string

	Outcome *filter.Outcome
}

// New returns a Pipeline that aligns with bowtie2.
func New(conf *config.Config, log logrus.FieldLogger) *Pipeline {
	p := &Pipeline{
		Conf: conf,
		Aligner: &align.Bowtie2{
			Build:   conf.Aligner.Build,
			Align:   conf.Aligner.Align,
			Threads: conf.Aligner.Threads,
			Timeout: conf.Aligner.Timeout,
			TempDir: conf.Aligner.TmpDir,
			Log:     log,
		},
		Log: log,
	}
	if conf.Progress {
		p.Progress = os.Stderr
	}
	return p
}

// Run reads the probe table, filters it and writes the kept probes.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	start := time.Now()

	probes, err := probe.ReadFile(p.Conf.ProbeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read probes: %w", err)
	}
	unique := probe.Prepare(probes)
	log.WithFields(logrus.Fields{
		"file":       p.Conf.ProbeFile,
		"probes":     len(probes),
		"duplicates": len(probes) - len(unique),
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Info("read probes")

	model, err := p.model()
	if err != nil {
		return nil, err
	}
	decider, err := filter.NewDecider(model)
	if err != nil {
		return nil, err
	}

	entries := make([]align.Entry, len(unique))
	for i, pr := range unique {
		entries[i] = align.Entry{Index: pr.Index, Seq: pr.Seq}
	}
	scores, err := p.Aligner.AllVsAll(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to align probes: %w", err)
	}

	orch := &filter.Orchestrator{
		Decider:  decider,
		Scores:   scores,
		Local:    p.Conf.Filter.ThresholdLocal,
		Global:   p.Conf.Filter.ThresholdGlobal,
		Log:      log,
		Progress: p.Progress,
	}
	outcome, err := orch.Run(ctx, unique)
	if err != nil {
		return nil, err
	}

	kept, removed, err := filter.Reconcile(unique, outcome)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Kept:    kept,
		Removed: removed,
		Output:  p.Conf.OutputPath(),
		Outcome: outcome,
	}
	if err := probe.WriteFile(res.Output, kept); err != nil {
		return nil, fmt.Errorf("failed to write kept probes: %w", err)
	}
	if p.Conf.WriteRemoved {
		res.RemovedOutput = p.Conf.RemovedPath()
		if err := probe.WriteFile(res.RemovedOutput, removed); err != nil {
			return nil, fmt.Errorf("failed to write removed probes: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"kept":    len(kept),
		"removed": len(removed),
		"output":  res.Output,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("filtered probes")

	return res, nil
}

// model is the built-in discriminant or the one from the model setting
func (p *Pipeline) model() (*lda.Model, error) {
	if p.Conf.Model == "" {
		return lda.Default()
	}
	return lda.Load(p.Conf.Model)
}
