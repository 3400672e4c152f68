package align

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeBuild stands in for bowtie2-build: checks the reference and writes an index file
const fakeBuild = `#!/bin/sh
grep -q '^>0$' "$1" || { echo "reference missing probe 0" >&2; exit 1; }
touch "$2.1.bt2"
`

// fakeAlign stands in for bowtie2: checks the reads and writes SAM to the -S path
const fakeAlign = `#!/bin/sh
reads=""
out=""
while [ $# -gt 0 ]; do
	case "$1" in
		-U) reads="$2"; shift ;;
		-S) out="$2"; shift ;;
	esac
	shift
done
grep -q '^@1$' "$reads" || { echo "reads missing probe 1" >&2; exit 1; }
printf '0\t0\t0\t1\t255\t4M\t*\t0\t0\tACGT\t~~~~\tAS:i:8\n' > "$out"
printf '0\t256\t1\t1\t255\t4M\t*\t0\t0\tACGT\t~~~~\tAS:i:6\n' >> "$out"
printf '1\t0\t1\t1\t255\t4M\t*\t0\t0\tTTGA\t~~~~\tAS:i:8\n' >> "$out"
`

func script(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeBowtie2(t *testing.T, build, align string) (*Bowtie2, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake aligners are shell scripts")
	}

	bin := t.TempDir()
	work := t.TempDir()
	log, _ := test.NewNullLogger()

	return &Bowtie2{
		Build:   script(t, bin, "bowtie2-build", build),
		Align:   script(t, bin, "bowtie2", align),
		Threads: 2,
		TempDir: work,
		Log:     log,
	}, work
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) > 0 {
		t.Errorf("workspace left behind in %s: %v", dir, files[0].Name())
	}
}

var entries = []Entry{
	{Index: 0, Seq: "ACGT"},
	{Index: 1, Seq: "TTGA"},
}

func TestBowtie2_AllVsAll(t *testing.T) {
	b, work := fakeBowtie2(t, fakeBuild, fakeAlign)

	scores, err := b.AllVsAll(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pair Pair
		want float64
	}{
		{Pair{0, 0}, 8},
		{Pair{0, 1}, 6},
		{Pair{1, 1}, 8},
		{Pair{1, 0}, 0},
	}
	for _, tt := range tests {
		if got := scores.Score(tt.pair); got != tt.want {
			t.Errorf("Score(%v) = %v, want %v", tt.pair, got, tt.want)
		}
	}

	assertEmptyDir(t, work)
}

func TestBowtie2_AllVsAll_empty(t *testing.T) {
	// neither executable exists, so any call would fail
	b := &Bowtie2{Build: "/nonexistent/bowtie2-build", Align: "/nonexistent/bowtie2"}

	scores, err := b.AllVsAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if scores.Len() != 0 {
		t.Errorf("Len() = %d, want 0", scores.Len())
	}
}

func TestBowtie2_AllVsAll_toolFailure(t *testing.T) {
	tests := []struct {
		name     string
		build    string
		align    string
		tool     string
		exitCode int
	}{
		{
			"index build fails",
			"#!/bin/sh\necho 'Error: Encountered internal Bowtie 2 exception' >&2\nexit 1\n",
			fakeAlign,
			"bowtie2-build",
			1,
		},
		{
			"alignment fails",
			fakeBuild,
			"#!/bin/sh\necho 'Error: reads file does not look like a FASTQ file' >&2\nexit 3\n",
			"bowtie2",
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, work := fakeBowtie2(t, tt.build, tt.align)

			_, err := b.AllVsAll(context.Background(), entries)

			var toolErr *ToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("AllVsAll() error = %v, want a *ToolError", err)
			}
			if toolErr.Tool != tt.tool {
				t.Errorf("Tool = %q, want %q", toolErr.Tool, tt.tool)
			}
			if toolErr.ExitCode != tt.exitCode {
				t.Errorf("ExitCode = %d, want %d", toolErr.ExitCode, tt.exitCode)
			}
			if toolErr.Output == "" {
				t.Error("tool output was not captured")
			}

			assertEmptyDir(t, work)
		})
	}
}

func TestBowtie2_AllVsAll_missingExecutable(t *testing.T) {
	b, work := fakeBowtie2(t, fakeBuild, fakeAlign)
	b.Align = filepath.Join(t.TempDir(), "bowtie2")

	_, err := b.AllVsAll(context.Background(), entries)

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("AllVsAll() error = %v, want a *ToolError", err)
	}
	if toolErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", toolErr.ExitCode)
	}

	assertEmptyDir(t, work)
}

func TestBowtie2_AllVsAll_timeout(t *testing.T) {
	b, work := fakeBowtie2(t, fakeBuild, "#!/bin/sh\nexec sleep 10\n")
	b.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := b.AllVsAll(context.Background(), entries)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("AllVsAll() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if elapsed := time.Since(start); elapsed > 8*time.Second {
		t.Errorf("AllVsAll() took %v after the timeout", elapsed)
	}

	assertEmptyDir(t, work)
}

func TestBowtie2_AllVsAll_noAlignments(t *testing.T) {
	tests := []struct {
		name  string
		align string
	}{
		{"empty output", "#!/bin/sh\nwhile [ $# -gt 0 ]; do [ \"$1\" = -S ] && : > \"$2\"; shift; done\n"},
		{"no output file", "#!/bin/sh\nexit 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, work := fakeBowtie2(t, fakeBuild, tt.align)

			_, err := b.AllVsAll(context.Background(), entries)
			if !errors.Is(err, ErrNoAlignments) {
				t.Errorf("AllVsAll() error = %v, want %v", err, ErrNoAlignments)
			}

			assertEmptyDir(t, work)
		})
	}
}

func TestBowtie2_logger(t *testing.T) {
	b := &Bowtie2{}
	if b.logger() != logrus.StandardLogger() {
		t.Error("logger() without a Log should be the standard logger")
	}
	if b.threads() != 1 {
		t.Errorf("threads() = %d, want 1", b.threads())
	}
}
