package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/spf13/viper"

	"probefilt/config"
	"probefilt/internal/align"
	"probefilt/internal/filter"
	"probefilt/internal/probe"
)

func Test_exitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, 0},
		{"settings", fmt.Errorf("%w: no probe file", config.ErrInvalid), exitInvalid},
		{"empty table", fmt.Errorf("failed to read probes: %w", probe.ErrNoProbes), exitInvalid},
		{"missing file", fmt.Errorf("failed to open probe file: %w", os.ErrNotExist), exitInvalid},
		{"malformed row", fmt.Errorf("failed to read probes: %w", &probe.ParseError{Line: 3, Err: errors.New("bad")}), exitInvalid},
		{"aligner exit", fmt.Errorf("failed to align probes: %w", &align.ToolError{Tool: "bowtie2", ExitCode: 1, Err: errors.New("exit status 1")}), exitTool},
		{"missing aligner", fmt.Errorf("failed to align probes: %w", &align.ToolError{Tool: "bowtie2-build", ExitCode: -1, Err: &fs.PathError{Op: "fork/exec", Path: "/opt/bin/bowtie2-build", Err: syscall.ENOENT}}), exitTool},
		{"no alignments", fmt.Errorf("failed to align probes: %w", align.ErrNoAlignments), exitTool},
		{"unclassified", fmt.Errorf("%w: rows [3]", filter.ErrUnclassified), exitUnclassified},
		{"other", context.Canceled, exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func Test_filterFlags(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	for flag, key := range filterFlags {
		f := filterCmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("no --%s flag", flag)
			continue
		}
		if !v.IsSet(key) && key != "probe-file" && key != "out-file" {
			t.Errorf("--%s is bound to %s, which has no default", flag, key)
		}
	}

	// flag defaults match the settings defaults
	defaults := map[string]string{
		"threshold-local":   "0",
		"threshold-global":  "0",
		"span-length":       "3000",
		"threshold":         "10",
		"composition-score": "0.5",
		"enrich-score":      "0.5",
		"copy-num":          "10",
		"threads":           "1",
		"aligner-timeout":   "12h0m0s",
		"bowtie2":           "bowtie2",
		"bowtie2-build":     "bowtie2-build",
	}
	for flag, want := range defaults {
		if got := filterCmd.Flags().Lookup(flag).DefValue; got != want {
			t.Errorf("--%s default = %s, want %s", flag, got, want)
		}
	}
}

func Test_filterExec_invalid(t *testing.T) {
	RootCmd.SetArgs([]string{"filter", "--threads", "0", "-f", "probes.tsv"})
	defer RootCmd.SetArgs(nil)

	err := RootCmd.Execute()
	if got := exitCode(err); got != exitInvalid {
		t.Errorf("Execute() error = %v, exit code %d, want %d", err, got, exitInvalid)
	}
}

func Test_makeDocs(t *testing.T) {
	dir := t.TempDir()
	if err := makeDocs(dir); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file string
		want string
	}{
		{"probefilt.md", "permalink: /"},
		{"probefilt_filter.md", "parent: probefilt"},
	}
	for _, tt := range tests {
		contents, err := os.ReadFile(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(contents), "---\n") || !strings.Contains(string(contents), tt.want) {
			t.Errorf("%s is missing its %q front matter", tt.file, tt.want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "probefilt_docs.md")); !os.IsNotExist(err) {
		t.Error("hidden docs command was documented")
	}
}
