package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mdm-migrate/internal/pipeline"
	"mdm-migrate/internal/platform"
	"mdm-migrate/internal/validate"
)

var (
	probeInstances string
	probeInstance  string
	probeTimeout   time.Duration
	probeHealth    bool
)

// probeCmd checks collection reachability against a live instance
var probeCmd = &cobra.Command{
	Use:   "probe [collection-id...]",
	Short: "Check reachability of reference-data collections on an instance",
	Long: `Probes each named reference-data collection against a live instance and
prints the result. With --health, also prints a connectivity snapshot of
the instance itself.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeInstances, "instances", "", "path to the instances YAML (required)")
	probeCmd.Flags().StringVar(&probeInstance, "instance", "", "instance name to probe against (required)")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", validate.DefaultProbeTimeout, "timeout per probe")
	probeCmd.Flags().BoolVar(&probeHealth, "health", false, "print an instance health snapshot")

	_ = probeCmd.MarkFlagRequired("instances")
	_ = probeCmd.MarkFlagRequired("instance")
}

func runProbe(cmd *cobra.Command, args []string) error {
	file, err := platform.LoadInstances(probeInstances)
	if err != nil {
		return err
	}

	inst, err := file.Lookup(probeInstance)
	if err != nil {
		return err
	}

	client, err := platform.NewClient(inst, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if probeHealth {
		h := client.CheckHealth(ctx)
		cmd.Printf("%s: reachable=%v authenticated=%v applications=%d",
			inst.Name, h.Reachable, h.Authenticated, h.Applications)

		if h.Version != "" {
			cmd.Printf(" version=%s", h.Version)
		}

		cmd.Println()
	}

	failed := 0

	for _, id := range args {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		status := client.Probe(probeCtx, id)
		cancel()

		cmd.Printf("  %-30s %s\n", id, status)

		if status != validate.StatusReachable {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d collection(s) not reachable", pipeline.ErrProbeFailed, failed)
	}

	return nil
}
