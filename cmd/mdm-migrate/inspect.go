package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/discover"
)

var inspectDebug bool

// inspectCmd dumps the discovered binding graph of a bundle
var inspectCmd = &cobra.Command{
	Use:   "inspect [bundle path]",
	Short: "List the reference-data bindings discovered in a bundle",
	Long: `Loads a bundle and prints its binding graph: one line per selectable
field, with collection reference, cascade parent, and classification, plus
any structural findings (dangling cascade parents, cascade loops).`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectDebug, "debug", false, "dump the raw binding graph structure")
}

func runInspect(cmd *cobra.Command, args []string) error {
	b, err := bundle.LoadFile(args[0])
	if err != nil {
		return err
	}

	g := discover.Discover(b)

	cmd.Printf("%s@%s: %d selectable field(s)\n", b.AppID, b.Version, g.Len())

	for i := range g.Nodes {
		n := &g.Nodes[i]

		line := fmt.Sprintf("  %-30s %-8s", n.Key.String(), n.Kind)

		if n.Kind.ReferencesCollection() {
			line += " -> " + n.CollectionID
		}

		if n.Parent != discover.NoParent {
			line += fmt.Sprintf(" (parent %s, filter %s)", g.Nodes[n.Parent].Key.String(), n.FilterKey)
		}

		cmd.Println(line)
	}

	for _, f := range g.Findings.Errors {
		cmd.Println("  finding:", f.String())
	}

	if inspectDebug {
		spew.Fdump(cmd.OutOrStdout(), g)
	}

	return nil
}
