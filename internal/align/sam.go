package align

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// flagUnmapped is the SAM flag bit of an unaligned read
const flagUnmapped = 0x4

// ParseSAM reads SAM alignment records into scores, keyed by the read
// and reference names (which are probe indices). Unaligned reads and header
// lines are skipped. Returns the number of records read, aligned or not.
func ParseSAM(r io.Reader, scores *Scores) (records int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "@") {
			continue
		}
		records++

		cols := strings.Split(text, "\t")
		if len(cols) < 11 {
			return records, fmt.Errorf("SAM line %d: expected at least 11 fields, found %d", line, len(cols))
		}

		flag, err := strconv.Atoi(cols[1])
		if err != nil {
			return records, fmt.Errorf("SAM line %d: bad flag: %w", line, err)
		}
		if flag&flagUnmapped != 0 || cols[2] == "*" {
			continue
		}

		query, err := strconv.Atoi(cols[0])
		if err != nil {
			return records, fmt.Errorf("SAM line %d: read name is not a probe index: %w", line, err)
		}
		target, err := strconv.Atoi(cols[2])
		if err != nil {
			return records, fmt.Errorf("SAM line %d: reference name is not a probe index: %w", line, err)
		}

		score, err := alignmentScore(cols[11:])
		if err != nil {
			return records, fmt.Errorf("SAM line %d: %w", line, err)
		}

		scores.Add(Pair{Query: query, Target: target}, score)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read SAM: %w", err)
	}
	return records, nil
}

// alignmentScore finds the AS:i tag among a record's optional fields
func alignmentScore(tags []string) (float64, error) {
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "AS:i:") {
			continue
		}

		score, err := strconv.Atoi(strings.TrimPrefix(tag, "AS:i:"))
		if err != nil {
			return 0, fmt.Errorf("bad alignment score %q: %w", tag, err)
		}
		return float64(score), nil
	}
	return 0, fmt.Errorf("aligned record has no AS:i tag")
}
