package config

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(settings map[string]interface{}) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for key, value := range settings {
		v.Set(key, value)
	}
	return v
}

func TestNew(t *testing.T) {
	v := newViper(map[string]interface{}{
		"probe-file": "probes.tsv",
		"out-file":   "kept.tsv",
	})

	c, err := New(v)
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		ProbeFile:  "probes.tsv",
		OutFile:    "kept.tsv",
		ResultsDir: filepath.Join("results", "lda_specificity_out"),
		Scan: ScanConfig{
			SpanLength:       3000,
			Threshold:        10,
			CompositionScore: 0.5,
			EnrichScore:      0.5,
			CopyNum:          10,
		},
		Aligner: AlignerConfig{
			Build:   "bowtie2-build",
			Align:   "bowtie2",
			Threads: 1,
			Timeout: 12 * time.Hour,
		},
	}
	if *c != want {
		t.Errorf("New() = %+v, want %+v", *c, want)
	}
}

func TestNew_settingsFile(t *testing.T) {
	settings := `
probe-file = "in.tsv"
out-file = "out.tsv"

[filter]
threshold-local = 1.5
threshold-global = -2

[aligner]
threads = 8
timeout = "30m"
`
	v := newViper(nil)
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(settings)); err != nil {
		t.Fatal(err)
	}

	c, err := New(v)
	if err != nil {
		t.Fatal(err)
	}

	if c.Filter.ThresholdLocal != 1.5 || c.Filter.ThresholdGlobal != -2 {
		t.Errorf("thresholds = %+v", c.Filter)
	}
	if c.Aligner.Threads != 8 || c.Aligner.Timeout != 30*time.Minute {
		t.Errorf("aligner = %+v", c.Aligner)
	}
	if c.Aligner.Align != "bowtie2" {
		t.Errorf("default aligner was overwritten: %q", c.Aligner.Align)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no probe file", func(c *Config) { c.ProbeFile = "" }},
		{"no output", func(c *Config) { c.OutFile = "" }},
		{"no results dir", func(c *Config) { c.ResultsDir = "" }},
		{"NaN threshold", func(c *Config) { c.Filter.ThresholdLocal = math.NaN() }},
		{"infinite threshold", func(c *Config) { c.Filter.ThresholdGlobal = math.Inf(1) }},
		{"no aligner", func(c *Config) { c.Aligner.Align = "" }},
		{"no threads", func(c *Config) { c.Aligner.Threads = 0 }},
		{"negative timeout", func(c *Config) { c.Aligner.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(newViper(map[string]interface{}{
				"probe-file": "probes.tsv",
				"out-file":   "kept.tsv",
			}))
			if err != nil {
				t.Fatal(err)
			}

			tt.modify(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want %v", err, ErrInvalid)
			}
		})
	}
}

func TestConfig_OutputPath(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
		want     string
	}{
		{
			"defaults",
			map[string]interface{}{},
			filepath.Join("results", "lda_specificity_out", "w3000_t10_c0.5_e0.5_cn10_l0_g0", "kept.tsv"),
		},
		{
			"custom",
			map[string]interface{}{
				"results-dir":             "out",
				"scan.span-length":        2000,
				"scan.composition-score":  0.25,
				"filter.threshold-local":  -1.5,
				"filter.threshold-global": 3,
			},
			filepath.Join("out", "w2000_t10_c0.25_e0.5_cn10_l-1.5_g3", "kept.tsv"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings["probe-file"] = "probes.tsv"
			tt.settings["out-file"] = "kept.tsv"

			c, err := New(newViper(tt.settings))
			if err != nil {
				t.Fatal(err)
			}
			if got := c.OutputPath(); got != tt.want {
				t.Errorf("OutputPath() = %v, want %v", got, tt.want)
			}
			if got := c.RemovedPath(); got != tt.want+".removed" {
				t.Errorf("RemovedPath() = %v", got)
			}
		})
	}
}
