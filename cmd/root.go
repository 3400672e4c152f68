// Package cmd is for command line interactions with the probefilt application
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"probefilt/config"
	"probefilt/internal/align"
	"probefilt/internal/filter"
	"probefilt/internal/probe"
)

// exit codes
const (
	exitError        = 1
	exitInvalid      = 2
	exitTool         = 3
	exitUnclassified = 4
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "probefilt",
	Short: "Remove oligo probes that are likely to cross-hybridize with other probes in their set",
	Long: `Remove oligo probes that are likely to cross-hybridize with other probes in their set.

Probes are aligned all-vs-all with bowtie2. Each probe is then scored against
every later probe with a linear discriminant over their k-mer composition
and alignment score, first within its region and then across all regions.
Probes scoring at or above a threshold against an earlier probe are removed.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		logrus.Error(err)
		os.Exit(exitCode(err))
	}
}

// initSettings reads the settings file and environment and sets up logging
func initSettings(cmd *cobra.Command, args []string) error {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if settings := viper.GetString("settings"); settings != "" {
		viper.SetConfigFile(settings)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: failed to read settings file %s: %v", config.ErrInvalid, settings, err)
		}
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// exitCode maps an error to the process' exit code
func exitCode(err error) int {
	var parseErr *probe.ParseError
	var toolErr *align.ToolError

	switch {
	case err == nil:
		return 0
	// a missing aligner is a tool failure, not a missing input
	case errors.As(err, &toolErr),
		errors.Is(err, align.ErrNoAlignments):
		return exitTool
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, probe.ErrNoProbes),
		errors.Is(err, fs.ErrNotExist),
		errors.As(err, &parseErr):
		return exitInvalid
	case errors.Is(err, filter.ErrUnclassified):
		return exitUnclassified
	}
	return exitError
}

func init() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.DisableAutoGenTag = true
	RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	})

	// settings is an optional settings file (YAML, TOML or JSON) that the flags override
	RootCmd.PersistentFlags().StringP("settings", "s", "", "settings file")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug messages")
	viper.BindPFlag("settings", RootCmd.PersistentFlags().Lookup("settings"))
	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	config.SetDefaults(viper.GetViper())
}
