package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"probefilt/config"
	"probefilt/internal/pipeline"
)

// filterCmd is for filtering a probe table
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a probe table for probes that cross-hybridize",
	Long: `Filter a probe table for probes that cross-hybridize.

The probe table is tab separated, without a header, with the columns:
chromosome, start, end, sequence, Tm, region, repeat count, host genome count
and score. Duplicate sequences are dropped, keeping the row with the highest
repeat count, and probes are evaluated in order of decreasing repeat count.

Kept rows are written unchanged to:
  <results-dir>/w<span>_t<threshold>_c<composition>_e<enrich>_cn<copy-num>_l<local>_g<global>/<out-file>`,
	Example: `  probefilt filter -f probes.tsv -o kept.tsv
  probefilt filter -f probes.tsv -o kept.tsv --threshold-local -1 --threshold-global 0.5 --threads 8`,
	Args:                       cobra.NoArgs,
	RunE:                       filterExec,
	SuggestionsMinimumDistance: 3,
}

// filterExec filters the probe table named in the settings
func filterExec(cmd *cobra.Command, args []string) error {
	conf, err := config.New(viper.GetViper())
	if err != nil {
		return err
	}

	_, err = pipeline.New(conf, logrus.StandardLogger()).Run(cmd.Context())
	return err
}

// filterFlags maps the filter command's flags to their settings keys
var filterFlags = map[string]string{
	"probe-file":        "probe-file",
	"out-file":          "out-file",
	"results-dir":       "results-dir",
	"write-removed":     "write-removed",
	"model":             "model",
	"threshold-local":   "filter.threshold-local",
	"threshold-global":  "filter.threshold-global",
	"span-length":       "scan.span-length",
	"threshold":         "scan.threshold",
	"composition-score": "scan.composition-score",
	"enrich-score":      "scan.enrich-score",
	"copy-num":          "scan.copy-num",
	"bowtie2-build":     "aligner.build",
	"bowtie2":           "aligner.align",
	"threads":           "aligner.threads",
	"aligner-timeout":   "aligner.timeout",
	"tmp-dir":           "aligner.tmp-dir",
	"progress":          "progress",
}

// set flags
func init() {
	flags := filterCmd.Flags()

	// Flags for specifying the paths to the input file and output file
	flags.StringP("probe-file", "f", "", "tab separated probe table")
	flags.StringP("out-file", "o", "", "output file name, within the run's results dir")
	flags.String("results-dir", "results/lda_specificity_out", "root dir of all results")
	flags.Bool("write-removed", false, "also write the removed probes to <out-file>.removed")
	flags.String("model", "", "TOML file with an alternative discriminant (coef, intercept, classes)")

	// Decision thresholds
	flags.Float64("threshold-local", 0, "drop probes scoring at or above this against an earlier probe in their region")
	flags.Float64("threshold-global", 0, "drop probes scoring at or above this against an earlier probe in any region")

	// Window scan parameters, for naming the output
	flags.IntP("span-length", "w", 3000, "window scan span")
	flags.IntP("threshold", "t", 10, "window scan minimum k-mer count")
	flags.Float64P("composition-score", "c", 0.5, "window scan composition fraction")
	flags.Float64P("enrich-score", "e", 0.5, "window scan enrichment ceiling")
	flags.Int("copy-num", 10, "window scan minimum copy number")

	// Aligner
	flags.String("bowtie2-build", "bowtie2-build", "path to bowtie2-build")
	flags.String("bowtie2", "bowtie2", "path to bowtie2")
	flags.IntP("threads", "p", 1, "bowtie2 alignment threads")
	flags.Duration("aligner-timeout", 12*time.Hour, "max runtime of each bowtie2 call, 0 for no limit")
	flags.String("tmp-dir", "", "parent dir of the alignment workspace")

	flags.Bool("progress", false, "render progress bars to stderr")

	// Bind the parameters to viper
	for flag, key := range filterFlags {
		viper.BindPFlag(key, flags.Lookup(flag))
	}

	RootCmd.AddCommand(filterCmd)
}
