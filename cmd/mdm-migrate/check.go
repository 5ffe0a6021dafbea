package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/mapping"
	"mdm-migrate/internal/pipeline"
	"mdm-migrate/internal/resolve"
)

var (
	checkMapping string
	checkStrict  bool
)

// checkCmd dry-runs resolution without rewriting anything
var checkCmd = &cobra.Command{
	Use:   "check [bundle path]",
	Short: "Dry-run the mapping resolution and report outcomes",
	Long: `Resolves every binding of a bundle against a mapping configuration and
prints the outcome summary without rewriting or committing anything.

With --strict the command fails when any binding is unmapped or ambiguous.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkMapping, "mapping", "m", "", "path to the mapping configuration YAML (required)")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "fail on unmapped or ambiguous bindings")

	_ = checkCmd.MarkFlagRequired("mapping")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := mapping.LoadFile(checkMapping)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfigInvalid, err)
	}

	if findings := mapping.Validate(cfg); findings.HasErrors() {
		return fmt.Errorf("%w: %v", pipeline.ErrConfigInvalid, findings.Error())
	}

	b, err := bundle.LoadFile(args[0])
	if err != nil {
		return err
	}

	g := discover.Discover(b)
	rs := resolve.Resolve(g, cfg)

	resolved, unmapped, ambiguous, weak := rs.Counts()

	cmd.Printf("%s@%s: %d binding(s)\n", b.AppID, b.Version, len(rs.Resolutions))
	cmd.Printf("  resolved:  %d (%d weak-confidence)\n", resolved, weak)
	cmd.Printf("  unmapped:  %d\n", unmapped)
	cmd.Printf("  ambiguous: %d\n", ambiguous)

	for i := range rs.Resolutions {
		r := &rs.Resolutions[i]
		if r.Outcome == resolve.OutcomeResolved && r.Confidence == resolve.ConfidenceStrong {
			continue
		}

		cmd.Printf("  %-30s %-10s %s\n", r.Key.String(), r.Outcome, r.Reason)
	}

	for _, f := range g.Findings.Errors {
		cmd.Println("  finding:", f.String())
	}

	if checkStrict && rs.Flagged() > 0 {
		return fmt.Errorf("%w: %d flagged binding(s)", pipeline.ErrValidationBlocked, rs.Flagged())
	}

	return nil
}
