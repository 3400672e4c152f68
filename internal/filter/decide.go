// Package filter removes probes likely to cross-hybridize with other
// probes of the same set. Each probe is scored against the probes after it
// with a linear discriminant, first within each region and then across all
// regions, and the ones that score at or above a threshold are dropped.
package filter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"probefilt/internal/align"
	"probefilt/internal/dna"
	"probefilt/internal/lda"
	"probefilt/internal/probe"
)

// rowChunk is the max number of comparisons scored in a single matrix
const rowChunk = 1024

// Decider scores whether a compare probe should be dropped in favor of a
// head probe. It memoizes sequence features, so it's not safe for
// concurrent use.
type Decider struct {
	// Model scores [head features][revcomp(compare) features][similarity]
	Model *lda.Model

	// Features of a single sequence
	Features dna.Featurizer

	// features of reverse complemented sequences, by forward sequence
	rc map[string][]float64
}

// NewDecider returns a Decider for the model, with k-mer composition
// features of the width the model was trained on.
func NewDecider(model *lda.Model) (*Decider, error) {
	comp, err := dna.CompositionForWidth(model.FeatureWidth())
	if err != nil {
		return nil, fmt.Errorf("failed to match features to model: %w", err)
	}
	return &Decider{Model: model, Features: comp}, nil
}

// Drop returns whether a compare probe with the decision score is dropped.
func Drop(score, threshold float64) bool {
	return score >= threshold
}

// Score returns the decision value of a head and compare sequence that
// align with the similarity score.
func (d *Decider) Score(head, compare string, similarity float64) (float64, error) {
	headFeats, err := d.Features.Features(head)
	if err != nil {
		return 0, err
	}
	compareFeats, err := d.compareFeatures(compare)
	if err != nil {
		return 0, err
	}

	x := make([]float64, 0, 2*len(headFeats)+1)
	x = append(x, headFeats...)
	x = append(x, compareFeats...)
	x = append(x, similarity)
	return d.Model.Decision(x)
}

// Row returns the decision value of the head against each compare probe.
// Similarity is the head-to-compare alignment score, 0 if they never aligned.
func (d *Decider) Row(head probe.Probe, compares []probe.Probe, scores *align.Scores) ([]float64, error) {
	values := make([]float64, 0, len(compares))
	if len(compares) == 0 {
		return values, nil
	}

	headFeats, err := d.Features.Features(head.Seq)
	if err != nil {
		return nil, err
	}
	width := d.Features.Width()
	cols := 2*width + 1
	if cols != len(d.Model.Coef) {
		return nil, fmt.Errorf("features have %d columns, model expects %d", cols, len(d.Model.Coef))
	}

	for start := 0; start < len(compares); start += rowChunk {
		end := start + rowChunk
		if end > len(compares) {
			end = len(compares)
		}
		chunk := compares[start:end]

		data := make([]float64, len(chunk)*cols)
		for i, c := range chunk {
			row := data[i*cols : (i+1)*cols]
			compareFeats, err := d.compareFeatures(c.Seq)
			if err != nil {
				return nil, err
			}
			copy(row, headFeats)
			copy(row[width:], compareFeats)
			row[cols-1] = scores.Score(align.Pair{Query: head.Index, Target: c.Index})
		}

		chunkValues, err := d.Model.DecisionFunction(mat.NewDense(len(chunk), cols, data))
		if err != nil {
			return nil, err
		}
		values = append(values, chunkValues...)
	}

	return values, nil
}

// compareFeatures returns the features of a sequence's reverse complement
func (d *Decider) compareFeatures(seq string) ([]float64, error) {
	if feats, ok := d.rc[seq]; ok {
		return feats, nil
	}

	feats, err := d.Features.Features(dna.RevComp(seq))
	if err != nil {
		return nil, err
	}
	if d.rc == nil {
		d.rc = make(map[string][]float64)
	}
	d.rc[seq] = feats
	return feats, nil
}
