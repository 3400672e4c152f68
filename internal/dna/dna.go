// Package dna has the sequence transforms used to compare probes:
// reverse complements and k-mer composition features.
package dna

import (
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// RevComp returns the reverse complement of a DNA sequence. Input is case
// insensitive, output is upper case.
func RevComp(seq string) string {
	if seq == "" {
		return ""
	}

	s := linear.NewSeq("", alphabet.BytesToLetters([]byte(strings.ToUpper(seq))), alphabet.DNA)
	s.RevComp()
	return strings.ToUpper(string(alphabet.LettersToBytes(s.Seq)))
}
