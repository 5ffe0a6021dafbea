// Package main provides the CLI entrypoint for mdm-migrate.
//
// mdm-migrate is a migration and reconciliation engine for form-platform
// application bundles:
//   - Discovers every reference-data binding in an exported bundle
//   - Resolves bindings against a reviewed YAML mapping configuration
//   - Rewrites the bundle onto the new reference-data collections
//   - Validates the result structurally and against a live instance
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/pipeline"
)

// Exit codes distinguish the failure stages for scripting callers.
const (
	exitOK         = 0
	exitError      = 1
	exitLoadFailed = 2
	exitValidation = 3
	exitProbe      = 4
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mdm-migrate",
	Short: "Migrate form-bundle reference-data bindings to a new master-data source",
	Long: `mdm-migrate inspects an exported application bundle, discovers every
field bound to a shared reference-data collection, remaps those bindings
according to a mapping configuration, rewrites the bundle, and validates
that the result is structurally and referentially sound.

The rewritten bundle is only committed after validation passes (or with
--force). The migration report is always printed for any loadable input.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		var err error

		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}

	os.Exit(exitOK)
}

// exitCode maps a run failure to its documented exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, bundle.ErrMalformedBundle),
		errors.Is(err, bundle.ErrUnsupportedVersion),
		errors.Is(err, bundle.ErrTruncatedInput),
		errors.Is(err, pipeline.ErrConfigInvalid):
		return exitLoadFailed
	case errors.Is(err, pipeline.ErrValidationBlocked):
		return exitValidation
	case errors.Is(err, pipeline.ErrProbeFailed):
		return exitProbe
	default:
		return exitError
	}
}
