// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings,
// eg PROBEFILT_ALIGNER_THREADS
const EnvPrefix = "PROBEFILT"

// ErrInvalid is returned for settings that can't be used for a run.
var ErrInvalid = errors.New("invalid settings")

// FilterConfig is the decision thresholds of the two filtering passes
type FilterConfig struct {
	// a probe scoring at or above this against an earlier probe of its region is removed
	ThresholdLocal float64 `mapstructure:"threshold-local"`

	// a probe scoring at or above this against an earlier probe of any region is removed
	ThresholdGlobal float64 `mapstructure:"threshold-global"`
}

// ScanConfig is the window scan that produced the probe table. The values
// only name the output directory
type ScanConfig struct {
	// window span in bp
	SpanLength int `mapstructure:"span-length"`

	// minimum k-mer count per window
	Threshold int `mapstructure:"threshold"`

	// window composition fraction
	CompositionScore float64 `mapstructure:"composition-score"`

	// enrichment ceiling
	EnrichScore float64 `mapstructure:"enrich-score"`

	// minimum copy number
	CopyNum int `mapstructure:"copy-num"`
}

// AlignerConfig is settings for the bowtie2 executables
type AlignerConfig struct {
	// path to bowtie2-build
	Build string `mapstructure:"build"`

	// path to bowtie2
	Align string `mapstructure:"align"`

	// alignment threads
	Threads int `mapstructure:"threads"`

	// max runtime of each executable, no limit if 0
	Timeout time.Duration `mapstructure:"timeout"`

	// parent dir of the alignment workspace, the system's if empty
	TmpDir string `mapstructure:"tmp-dir"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file and those
// available from the command line
type Config struct {
	// path to the input probe table
	ProbeFile string `mapstructure:"probe-file"`

	// name of the output table within the run's results dir
	OutFile string `mapstructure:"out-file"`

	// root dir of all results
	ResultsDir string `mapstructure:"results-dir"`

	// whether to also write the removed probes
	WriteRemoved bool `mapstructure:"write-removed"`

	// path to a model file, the built-in model is used if empty
	Model string `mapstructure:"model"`

	Filter FilterConfig `mapstructure:"filter"`

	Scan ScanConfig `mapstructure:"scan"`

	Aligner AlignerConfig `mapstructure:"aligner"`

	// whether to log debug messages
	Verbose bool `mapstructure:"verbose"`

	// whether to render progress bars
	Progress bool `mapstructure:"progress"`
}

// SetDefaults sets the default of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("results-dir", filepath.Join("results", "lda_specificity_out"))
	v.SetDefault("write-removed", false)
	v.SetDefault("model", "")

	v.SetDefault("filter.threshold-local", 0.0)
	v.SetDefault("filter.threshold-global", 0.0)

	v.SetDefault("scan.span-length", 3000)
	v.SetDefault("scan.threshold", 10)
	v.SetDefault("scan.composition-score", 0.5)
	v.SetDefault("scan.enrich-score", 0.5)
	v.SetDefault("scan.copy-num", 10)

	v.SetDefault("aligner.build", "bowtie2-build")
	v.SetDefault("aligner.align", "bowtie2")
	v.SetDefault("aligner.threads", 1)
	v.SetDefault("aligner.timeout", 12*time.Hour)
	v.SetDefault("aligner.tmp-dir", "")

	v.SetDefault("verbose", false)
	v.SetDefault("progress", false)
}

// New returns a new Config struct populated by Viper settings (from a
// settings file, the environment and/or command line arguments).
func New(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("%w: unable to decode into struct: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that a run can start with the settings.
func (c *Config) Validate() error {
	switch {
	case c.ProbeFile == "":
		return fmt.Errorf("%w: no probe file", ErrInvalid)
	case c.OutFile == "":
		return fmt.Errorf("%w: no output file name", ErrInvalid)
	case c.ResultsDir == "":
		return fmt.Errorf("%w: no results dir", ErrInvalid)
	case !finite(c.Filter.ThresholdLocal):
		return fmt.Errorf("%w: local threshold is %v", ErrInvalid, c.Filter.ThresholdLocal)
	case !finite(c.Filter.ThresholdGlobal):
		return fmt.Errorf("%w: global threshold is %v", ErrInvalid, c.Filter.ThresholdGlobal)
	case c.Aligner.Build == "" || c.Aligner.Align == "":
		return fmt.Errorf("%w: no bowtie2 executables", ErrInvalid)
	case c.Aligner.Threads < 1:
		return fmt.Errorf("%w: %d aligner threads", ErrInvalid, c.Aligner.Threads)
	case c.Aligner.Timeout < 0:
		return fmt.Errorf("%w: negative aligner timeout %v", ErrInvalid, c.Aligner.Timeout)
	}
	return nil
}

// RunDir is the results subdirectory named after the run's parameters, eg
// "w3000_t10_c0.5_e0.5_cn10_l0_g0".
func (c *Config) RunDir() string {
	return fmt.Sprintf(
		"w%d_t%d_c%s_e%s_cn%d_l%s_g%s",
		c.Scan.SpanLength,
		c.Scan.Threshold,
		formatFloat(c.Scan.CompositionScore),
		formatFloat(c.Scan.EnrichScore),
		c.Scan.CopyNum,
		formatFloat(c.Filter.ThresholdLocal),
		formatFloat(c.Filter.ThresholdGlobal),
	)
}

// OutputPath is the path of the kept probe table.
func (c *Config) OutputPath() string {
	return filepath.Join(c.ResultsDir, c.RunDir(), c.OutFile)
}

// RemovedPath is the path of the removed probe table.
func (c *Config) RemovedPath() string {
	return c.OutputPath() + ".removed"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
