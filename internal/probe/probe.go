// Package probe is for reading, ordering and writing tables of candidate
// oligonucleotide probes.
package probe

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// columns of the probe table, in file order
var columns = []string{
	"chrom",
	"p_start",
	"p_end",
	"probe",
	"Tm",
	"region",
	"repeat_num",
	"hg_num",
	"score",
}

// ErrNoProbes is returned when a probe table has no rows.
var ErrNoProbes = errors.New("no probes in table")

// Probe is a single row of the probe table.
type Probe struct {
	// Index is the 0-based row of the probe in its input table. It is
	// assigned once, when the table is read, and is the key of the probe
	// in the alignment score cache
	Index int

	// chromosome the probe maps to
	Chrom string

	// start of the probe on the chromosome
	Start int

	// end of the probe on the chromosome
	End int

	// Seq is the upper-cased probe sequence. It is also the identity
	// of the probe
	Seq string

	// melting temperature
	Tm float64

	// Region groups the probes that target the same locus
	Region string

	// RepeatCount is the number of times the probe's k-mers are found in the repeat region
	RepeatCount int

	// HostCount is the number of times the probe's k-mers are found in the host genome
	HostCount int

	// prior score of the probe
	Score float64

	// the row as it was read, written back unchanged
	fields []string
}

// Fields returns the row's columns. Rows read from a table are returned
// exactly as they were read.
func (p Probe) Fields() []string {
	if len(p.fields) == len(columns) {
		return append([]string(nil), p.fields...)
	}

	return []string{
		p.Chrom,
		strconv.Itoa(p.Start),
		strconv.Itoa(p.End),
		p.Seq,
		strconv.FormatFloat(p.Tm, 'f', -1, 64),
		p.Region,
		strconv.Itoa(p.RepeatCount),
		strconv.Itoa(p.HostCount),
		strconv.FormatFloat(p.Score, 'f', -1, 64),
	}
}

// Prepare orders probes by descending repeat count, keeping the table's
// order between ties, and drops every probe whose sequence was already seen.
// The surviving copy of a duplicated sequence is the one with the highest
// repeat count.
//
// The returned order is the processing order of the filter: it decides which
// probe is the "head" of each elimination round.
func Prepare(probes []Probe) []Probe {
	ordered := append([]Probe(nil), probes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RepeatCount > ordered[j].RepeatCount
	})

	seen := make(map[string]bool, len(ordered))
	unique := ordered[:0]
	for _, p := range ordered {
		if seen[p.Seq] {
			continue
		}
		seen[p.Seq] = true
		unique = append(unique, p)
	}

	return unique
}

// Group is the set of probes sharing a region id.
type Group struct {
	Region string
	Probes []Probe
}

// Regions splits probes into region groups. Groups are in the order their
// region is first seen and each group keeps the order of probes.
func Regions(probes []Probe) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, p := range probes {
		i, ok := index[p.Region]
		if !ok {
			i = len(groups)
			index[p.Region] = i
			groups = append(groups, Group{Region: p.Region})
		}
		groups[i].Probes = append(groups[i].Probes, p)
	}

	return groups
}

// ParseError is a malformed row in a probe table.
type ParseError struct {
	// 1-based line number
	Line int

	// name of the offending column, empty if the whole row is malformed
	Column string

	Err error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
