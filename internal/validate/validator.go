package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/diagnostic"
	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/resolve"
)

// DefaultProbeTimeout bounds one reachability probe.
const DefaultProbeTimeout = 5 * time.Second

// ErrBundleMismatch reports validator input bundles that do not describe
// the same application identity. That is a defect in the caller's use of
// the pipeline, not a data-quality issue.
var ErrBundleMismatch = errors.New("original and rewritten bundles have different identities")

// Options configures a validation run.
type Options struct {
	// ProbeTimeout bounds each reachability probe. Zero means
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// MaxFlagged is the number of unmapped plus ambiguous bindings
	// tolerated before the report blocks. Zero is strict; negative means
	// best-effort (never blocks on flagged bindings).
	MaxFlagged int
}

// ProbeResult records the probe outcome for one distinct collection id.
type ProbeResult struct {
	CollectionID string      `json:"collectionId"`
	Status       ProbeStatus `json:"status"`
}

// Report aggregates everything the validator learned about one
// original/rewritten bundle pair.
type Report struct {
	AppID   string `json:"appId"`
	Version string `json:"version"`

	// Resolution counts carried forward from the resolution set.
	Resolved  int `json:"resolved"`
	Unmapped  int `json:"unmapped"`
	Ambiguous int `json:"ambiguous"`
	// WeakConfidence counts resolved pairings accepted without declared
	// filter-key metadata.
	WeakConfidence int `json:"weakConfidence"`

	// Findings holds orphaned-reference and cascade-consistency findings.
	// Error findings block the run.
	Findings diagnostic.Findings `json:"findings"`

	// Probes holds one result per distinct collection id in the rewritten
	// bundle, sorted by id.
	Probes []ProbeResult `json:"probes"`

	// ProbeTimeout is the bound applied to each probe.
	ProbeTimeout time.Duration `json:"probeTimeoutNs"`

	// TimedOut counts probes that hit the bound.
	TimedOut int `json:"timedOut"`
}

// Passed returns true if no blocking concern was found.
func (r *Report) Passed() bool {
	return !r.Findings.HasErrors()
}

// ProbesHealthy returns true if every probed collection was reachable.
func (r *Report) ProbesHealthy() bool {
	for _, p := range r.Probes {
		if p.Status != StatusReachable {
			return false
		}
	}

	return true
}

// Run validates a rewritten bundle against its original.
//
// Checks: no option source dropped or kind-changed, cascade edges
// preserved, every distinct collection id in the rewritten bundle probed
// exactly once, and the flagged-binding count held against the caller's
// threshold. Neither bundle is mutated.
func Run(ctx context.Context, orig, rewritten *bundle.Bundle, rs *resolve.Set, probe Probe, opts Options) (*Report, error) {
	if !orig.SameIdentity(rewritten) {
		return nil, fmt.Errorf("%w: %s@%s vs %s@%s", ErrBundleMismatch,
			orig.AppID, orig.Version, rewritten.AppID, rewritten.Version)
	}

	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}

	rep := &Report{
		AppID:        orig.AppID,
		Version:      orig.Version,
		ProbeTimeout: opts.ProbeTimeout,
	}

	rep.Resolved, rep.Unmapped, rep.Ambiguous, rep.WeakConfidence = rs.Counts()

	checkSourcesPreserved(orig, rewritten, &rep.Findings)
	checkCascadePreserved(orig, rewritten, &rep.Findings)
	checkFlagged(rs, opts, &rep.Findings)
	runProbes(ctx, rewritten, probe, opts, rep)

	return rep, nil
}

// checkSourcesPreserved verifies every field that had an option source in
// the original still has one of the same kind in the rewritten bundle.
// Nothing may be silently dropped, only mapped or left alone.
func checkSourcesPreserved(orig, rewritten *bundle.Bundle, findings *diagnostic.Findings) {
	for _, form := range orig.Forms {
		for _, field := range form.Fields {
			if field.Source == nil {
				continue
			}

			after := rewritten.FindField(form.ID, field.ID)
			if after == nil || after.Source == nil {
				findings.AddError("option_source_dropped",
					fmt.Sprintf("field %s.%s lost its option source in the rewrite", form.ID, field.ID),
					form.ID, field.ID)

				continue
			}

			if after.Source.Kind != field.Source.Kind {
				findings.AddError("option_source_kind_changed",
					fmt.Sprintf("field %s.%s changed option source kind %q -> %q",
						form.ID, field.ID, field.Source.Kind, after.Source.Kind),
					form.ID, field.ID)
			}
		}
	}
}

// checkCascadePreserved recomputes the binding graph of both bundles and
// verifies the parent/child field pairings are identical.
func checkCascadePreserved(orig, rewritten *bundle.Bundle, findings *diagnostic.Findings) {
	before := edgeSet(discover.Discover(orig))
	after := edgeSet(discover.Discover(rewritten))

	for edge := range before {
		if _, ok := after[edge]; !ok {
			findings.AddError("cascade_edge_lost",
				fmt.Sprintf("cascade %s -> %s missing from rewritten bundle",
					edge.Parent.String(), edge.Child.String()),
				edge.Child.FormID, edge.Child.FieldID)
		}
	}

	for edge := range after {
		if _, ok := before[edge]; !ok {
			findings.AddError("cascade_edge_added",
				fmt.Sprintf("cascade %s -> %s not present in original bundle",
					edge.Parent.String(), edge.Child.String()),
				edge.Child.FormID, edge.Child.FieldID)
		}
	}
}

func edgeSet(g *discover.Graph) map[discover.EdgePair]struct{} {
	edges := g.Edges()
	set := make(map[discover.EdgePair]struct{}, len(edges))

	for _, e := range edges {
		set[e] = struct{}{}
	}

	return set
}

// checkFlagged holds the unmapped+ambiguous count against the caller's
// threshold. Strict callers use zero tolerance; negative thresholds never
// block.
func checkFlagged(rs *resolve.Set, opts Options, findings *diagnostic.Findings) {
	flagged := rs.Flagged()
	if flagged == 0 {
		return
	}

	msg := fmt.Sprintf("%d binding(s) unmapped or ambiguous", flagged)

	if opts.MaxFlagged >= 0 && flagged > opts.MaxFlagged {
		findings.AddError("flagged_bindings", msg, "", "")
		return
	}

	findings.AddWarning("flagged_bindings", msg, "", "")
}

// runProbes probes each distinct collection id referenced by the rewritten
// bundle exactly once, with a bounded timeout per id. Timeouts count as
// unreachable outcomes, never as failures of the validation itself.
func runProbes(ctx context.Context, rewritten *bundle.Bundle, probe Probe, opts Options, rep *Report) {
	g := discover.Discover(rewritten)

	distinct := map[string]struct{}{}

	for _, n := range g.Nodes {
		if n.Kind.ReferencesCollection() {
			distinct[n.CollectionID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(distinct))
	for id := range distinct {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		probeCtx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
		status := probe.Probe(probeCtx, id)
		cancel()

		if status == StatusUnreachable && probeCtx.Err() == context.DeadlineExceeded {
			status = StatusTimedOut
		}

		if status == StatusTimedOut {
			rep.TimedOut++
		}

		if status != StatusReachable {
			rep.Findings.AddWarning("collection_unreachable",
				fmt.Sprintf("collection %q: probe result %s", id, status), "", "")
		}

		rep.Probes = append(rep.Probes, ProbeResult{CollectionID: id, Status: status})
	}
}
