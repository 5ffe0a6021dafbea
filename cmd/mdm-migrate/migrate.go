package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mdm-migrate/internal/mapping"
	"mdm-migrate/internal/pipeline"
	"mdm-migrate/internal/platform"
	"mdm-migrate/internal/validate"
)

var (
	migrateMapping      string
	migrateOut          string
	migrateStrict       bool
	migrateForce        bool
	migrateInstances    string
	migrateInstance     string
	migrateProbeTimeout time.Duration
)

// migrateCmd runs the full pipeline on one bundle
var migrateCmd = &cobra.Command{
	Use:   "migrate [bundle path]",
	Short: "Rewrite a bundle's reference-data bindings and validate the result",
	Long: `Runs the full migration pipeline on one exported bundle:
load, binding discovery, mapping resolution, rewrite, validation, commit.

With --strict, any unmapped or ambiguous binding and any probe failure
blocks the run. Without it, flagged bindings are reported and the rest of
the bundle is migrated. --force commits even when validation blocked.

Reachability probes run against the instance named by --instance when an
instances file is given; otherwise probing is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateMapping, "mapping", "m", "", "path to the mapping configuration YAML (required)")
	migrateCmd.Flags().StringVarP(&migrateOut, "out", "o", "", "path for the rewritten bundle (required)")
	migrateCmd.Flags().BoolVar(&migrateStrict, "strict", false, "block on unmapped/ambiguous bindings and probe failures")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "commit the rewritten bundle even when validation blocked")
	migrateCmd.Flags().StringVar(&migrateInstances, "instances", "", "path to the instances YAML for live probing")
	migrateCmd.Flags().StringVar(&migrateInstance, "instance", "", "instance name to probe against")
	migrateCmd.Flags().DurationVar(&migrateProbeTimeout, "probe-timeout", validate.DefaultProbeTimeout, "timeout per reachability probe")

	_ = migrateCmd.MarkFlagRequired("mapping")
	_ = migrateCmd.MarkFlagRequired("out")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := mapping.LoadFile(migrateMapping)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfigInvalid, err)
	}

	probe, err := buildProbe()
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(&pipeline.FileStore{OutPath: migrateOut}, probe, logger)

	rep, runErr := runner.Run(cmd.Context(), pipeline.Request{
		Ref:          args[0],
		Mapping:      cfg,
		Strict:       migrateStrict,
		Force:        migrateForce,
		ProbeTimeout: migrateProbeTimeout,
	})

	// The report is printed even when the run failed: the caller sees what
	// is safe to commit versus what needs a human decision.
	if rep != nil {
		printReport(cmd, rep)
	}

	return runErr
}

// buildProbe wires the live reachability probe, or the no-op probe for
// offline runs.
func buildProbe() (validate.Probe, error) {
	if migrateInstances == "" {
		return validate.NopProbe, nil
	}

	if migrateInstance == "" {
		return nil, fmt.Errorf("--instances requires --instance")
	}

	file, err := platform.LoadInstances(migrateInstances)
	if err != nil {
		return nil, err
	}

	inst, err := file.Lookup(migrateInstance)
	if err != nil {
		return nil, err
	}

	client, err := platform.NewClient(inst, logger)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func printReport(cmd *cobra.Command, rep *pipeline.Report) {
	data, err := rep.MarshalIndent()
	if err != nil {
		cmd.PrintErrln("rendering migration report:", err)
		return
	}

	cmd.Println(string(data))
}
