package probe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFile reads the probe table at path.
func ReadFile(path string) ([]Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open probe file: %w", err)
	}
	defer f.Close()

	probes, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe file %s: %w", path, err)
	}
	return probes, nil
}

// Read parses a tab separated probe table without a header. Fields are
// split on tabs only, quotes are part of a field. Blank lines are skipped and
// the first malformed row stops the read.
func Read(r io.Reader) ([]Probe, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var probes []Probe
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		p, err := parseRow(strings.Split(text, "\t"), line)
		if err != nil {
			return nil, err
		}
		p.Index = len(probes)
		probes = append(probes, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read probe table: %w", err)
	}

	if len(probes) == 0 {
		return nil, ErrNoProbes
	}
	return probes, nil
}

// parseRow turns a single record into a Probe
func parseRow(record []string, line int) (p Probe, err error) {
	if len(record) != len(columns) {
		return p, &ParseError{
			Line: line,
			Err:  fmt.Errorf("expected %d columns, found %d", len(columns), len(record)),
		}
	}

	fail := func(col int, err error) (Probe, error) {
		return Probe{}, &ParseError{Line: line, Column: columns[col], Err: err}
	}
	atoi := func(col int) (int, error) {
		return strconv.Atoi(strings.TrimSpace(record[col]))
	}
	atof := func(col int) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	}

	p.fields = record
	if p.Chrom = record[0]; p.Chrom == "" {
		return fail(0, errors.New("empty chromosome"))
	}
	if p.Start, err = atoi(1); err != nil {
		return fail(1, err)
	}
	if p.End, err = atoi(2); err != nil {
		return fail(2, err)
	}
	if p.Seq, err = normalize(record[3]); err != nil {
		return fail(3, err)
	}
	if p.Tm, err = atof(4); err != nil {
		return fail(4, err)
	}
	p.Region = record[5]
	if p.RepeatCount, err = atoi(6); err != nil {
		return fail(6, err)
	}
	if p.HostCount, err = atoi(7); err != nil {
		return fail(7, err)
	}
	if p.Score, err = atof(8); err != nil {
		return fail(8, err)
	}

	return p, nil
}

// normalize upper-cases a probe sequence and checks that it's only made of A, C, G and T
func normalize(seq string) (string, error) {
	seq = strings.ToUpper(strings.TrimSpace(seq))
	if seq == "" {
		return "", errors.New("empty sequence")
	}

	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return "", fmt.Errorf("invalid base %q at position %d", seq[i], i+1)
		}
	}
	return seq, nil
}

// Write writes probes as a tab separated table without a header. Rows
// that were read are written back byte for byte.
func Write(w io.Writer, probes []Probe) error {
	bw := bufio.NewWriter(w)
	for _, p := range probes {
		if _, err := bw.WriteString(strings.Join(p.Fields(), "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes probes to path, creating its parent directories.
func WriteFile(path string, probes []Probe) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(f, probes); err != nil {
		f.Close()
		return fmt.Errorf("failed to write probes to %s: %w", path, err)
	}
	return f.Close()
}
