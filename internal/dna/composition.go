package dna

import (
	"fmt"

	"github.com/shenwei356/kmers"
)

// Featurizer turns a sequence into a fixed width numeric feature vector.
type Featurizer interface {
	// Width is the length of every vector returned by Features
	Width() int

	// Features of a single sequence
	Features(seq string) ([]float64, error)
}

// Composition counts the overlapping k-mers of a sequence for every k from
// 1 to MaxK. Each k has its own block of 4^k counts, ordered by the k-mer's
// 2-bit code (A < C < G < T), and blocks are laid out by increasing k.
type Composition struct {
	MaxK int
}

// Width returns the summed sizes of the 4^k blocks.
func (c Composition) Width() int {
	width := 0
	for k := 1; k <= c.MaxK; k++ {
		width += 1 << (2 * uint(k))
	}
	return width
}

// Features returns the k-mer counts of seq. The sequence must be made of
// A, C, G and T (upper or lower case).
func (c Composition) Features(seq string) ([]float64, error) {
	if c.MaxK < 1 || c.MaxK > 32 {
		return nil, fmt.Errorf("k-mer size out of range: %d", c.MaxK)
	}

	b := []byte(seq)
	for i, base := range b {
		switch base {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			return nil, fmt.Errorf("invalid base %q at %d in %s", base, i, seq)
		}
	}

	features := make([]float64, c.Width())

	offset := 0
	for k := 1; k <= c.MaxK; k++ {
		for i := 0; i+k <= len(b); i++ {
			code, err := kmers.Encode(b[i : i+k])
			if err != nil {
				return nil, fmt.Errorf("failed to encode %d-mer at %d in %s: %w", k, i, seq, err)
			}
			features[offset+int(code)]++
		}
		offset += 1 << (2 * uint(k))
	}

	return features, nil
}

// CompositionForWidth returns the Composition whose width is width, eg a
// width of 340 is k-mers 1 to 4.
func CompositionForWidth(width int) (Composition, error) {
	for k := 1; k <= 16; k++ {
		c := Composition{MaxK: k}
		switch w := c.Width(); {
		case w == width:
			return c, nil
		case w > width:
			return Composition{}, fmt.Errorf("no k-mer composition has width %d", width)
		}
	}
	return Composition{}, fmt.Errorf("no k-mer composition has width %d", width)
}
