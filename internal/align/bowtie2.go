package align

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/sirupsen/logrus"
)

// ErrNoAlignments is returned when the aligner writes no records for a
// non-empty probe set.
var ErrNoAlignments = errors.New("aligner produced no alignments")

// alignArgs is the fixed seed and scoring configuration for bowtie2:
// gapped local alignment, 20bp seeds with up to 1 mismatch, a minimum score
// that grows with read length, and up to 1000 alignments per read.
var alignArgs = []string{
	"-k", "1000",
	"--local",
	"-D", "20",
	"-R", "3",
	"-N", "1",
	"-L", "20",
	"-i", "C,4",
	"--score-min", "G,1,4",
}

// waitDelay bounds the wait for a killed aligner's output pipes to close
const waitDelay = 5 * time.Second

// maxQuality is the phred score of every base in the reads file ('~' in Sanger encoding)
const maxQuality = 93

// Bowtie2 runs bowtie2-build and bowtie2 to align a probe set against itself.
type Bowtie2 struct {
	// path to the bowtie2-build executable
	Build string

	// path to the bowtie2 executable
	Align string

	// number of alignment threads
	Threads int

	// Timeout of each subprocess. Zero means no timeout
	Timeout time.Duration

	// TempDir is the parent of the run's workspace, the system's temp dir if empty
	TempDir string

	Log logrus.FieldLogger
}

// bowtie2Exec is a single all-vs-all run within its own workspace
type bowtie2Exec struct {
	*Bowtie2

	// the workspace dir
	dir string

	// path to the reference FASTA
	fasta string

	// path to the reads FASTQ
	fastq string

	// prefix of the index files
	index string

	// path to the alignment output
	sam string
}

// AllVsAll aligns every entry against every other. The workspace it creates
// is removed before returning, whether or not the alignment succeeded.
func (b *Bowtie2) AllVsAll(ctx context.Context, entries []Entry) (scores *Scores, err error) {
	scores = NewScores()
	if len(entries) == 0 {
		return scores, nil
	}

	dir, err := os.MkdirTemp(b.TempDir, "allvall-")
	if err != nil {
		return nil, fmt.Errorf("failed to create a bowtie2 workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove bowtie2 workspace: %w", rmErr)
		}
	}()

	e := &bowtie2Exec{
		Bowtie2: b,
		dir:     dir,
		fasta:   filepath.Join(dir, "all_v_all.fa"),
		fastq:   filepath.Join(dir, "all_v_all.fastq"),
		index:   filepath.Join(dir, "derived"),
		sam:     filepath.Join(dir, "all_v_all.sam"),
	}

	if err := e.input(entries); err != nil {
		return nil, fmt.Errorf("failed to write bowtie2 input: %w", err)
	}

	start := time.Now()
	if err := e.run(ctx, b.Build, e.fasta, e.index, "-q"); err != nil {
		return nil, err
	}
	b.logger().WithFields(logrus.Fields{
		"workspace": e.dir,
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Debug("built alignment index")

	start = time.Now()
	args := []string{"-x", e.index, "-U", e.fastq}
	args = append(args, alignArgs...)
	args = append(args, "-p", strconv.Itoa(b.threads()), "-S", e.sam, "--no-hd", "--quiet")
	if err := e.run(ctx, b.Align, args...); err != nil {
		return nil, err
	}

	records, err := e.parse(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bowtie2 output: %w", err)
	}
	if records == 0 {
		return nil, fmt.Errorf("%w: %d probes in, 0 records out", ErrNoAlignments, len(entries))
	}

	b.logger().WithFields(logrus.Fields{
		"probes":  len(entries),
		"records": records,
		"pairs":   scores.Len(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("aligned probes all-vs-all")

	return scores, nil
}

// input writes the entries as the reference FASTA and the reads FASTQ
func (e *bowtie2Exec) input(entries []Entry) error {
	width := 1
	for _, entry := range entries {
		if len(entry.Seq) > width {
			width = len(entry.Seq)
		}
	}

	if err := writeSeqs(e.fasta, func(w *bufio.Writer) error {
		fw := fasta.NewWriter(w, width)
		for _, entry := range entries {
			s := linear.NewSeq(strconv.Itoa(entry.Index), alphabet.BytesToLetters([]byte(entry.Seq)), alphabet.DNA)
			if _, err := fw.Write(s); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return writeSeqs(e.fastq, func(w *bufio.Writer) error {
		fw := fastq.NewWriter(w)
		for _, entry := range entries {
			qletters := make([]alphabet.QLetter, len(entry.Seq))
			for i := range entry.Seq {
				qletters[i] = alphabet.QLetter{L: alphabet.Letter(entry.Seq[i]), Q: maxQuality}
			}
			s := linear.NewQSeq(strconv.Itoa(entry.Index), qletters, alphabet.DNA, alphabet.Sanger)
			if _, err := fw.Write(s); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSeqs creates a file and hands a buffered writer for it to write
func writeSeqs(path string, write func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// run calls an external executable and waits on it to finish
func (e *bowtie2Exec) run(ctx context.Context, name string, args ...string) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	toolErr := &ToolError{
		Tool:     filepath.Base(name),
		Args:     args,
		ExitCode: -1,
		Output:   strings.TrimSpace(string(output)),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		toolErr.Err = ctxErr
	}
	return toolErr
}

// parse reads the alignment output into scores
func (e *bowtie2Exec) parse(scores *Scores) (int, error) {
	f, err := os.Open(e.sam)
	if os.IsNotExist(err) {
		return 0, nil // reported as ErrNoAlignments
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return ParseSAM(f, scores)
}

func (b *Bowtie2) threads() int {
	if b.Threads < 1 {
		return 1
	}
	return b.Threads
}

func (b *Bowtie2) logger() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// ToolError is a failed external aligner call.
type ToolError struct {
	// base name of the executable
	Tool string

	// arguments it was called with
	Args []string

	// ExitCode of the process, -1 if it didn't exit on its own
	ExitCode int

	// combined stdout and stderr
	Output string

	Err error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("failed to execute %s: %v", e.Tool, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
