package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/diagnostic"
	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/mapping"
	"mdm-migrate/internal/resolve"
	"mdm-migrate/internal/rewrite"
)

func testBundle() *bundle.Bundle {
	return &bundle.Bundle{
		AppID:   "farm-registry",
		Version: "3",
		Forms: []bundle.Form{
			{
				ID: "farm",
				Fields: []bundle.Field{
					{ID: "crop", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "crop-types",
					}},
					{ID: "region", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "regions",
					}},
					{ID: "district", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind:         bundle.SourceCascade,
						CollectionID: "districts",
						Parent:       bundle.ParentRef{Field: "region"},
						FilterKey:    "region-id",
					}},
					// Same collection as crop: probed once, not twice.
					{ID: "secondary-crop", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "crop-types",
					}},
				},
			},
		},
	}
}

func migrate(b *bundle.Bundle, yaml string) (*bundle.Bundle, *resolve.Set) {
	cfg, err := mapping.Parse([]byte(yaml))
	if err != nil {
		panic(err)
	}

	rs := resolve.Resolve(discover.Discover(b), cfg)
	out, _ := rewrite.Rewrite(b, rs)

	return out, rs
}

const fullMapping = `
collections:
  crop-types: crop-types-v2
  regions: regions-v2
  districts: districts-v2
`

func TestRun_CleanMigration(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)

	rep, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{})
	require.NoError(t, err)

	assert.True(t, rep.Passed())
	assert.True(t, rep.ProbesHealthy())
	assert.Equal(t, "farm-registry", rep.AppID)
	assert.Equal(t, 4, rep.Resolved)
	assert.Equal(t, 0, rep.Unmapped)
	assert.Equal(t, 1, rep.WeakConfidence)
	assert.Equal(t, DefaultProbeTimeout, rep.ProbeTimeout)
}

func TestRun_BundleMismatch(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)
	rewritten.AppID = "someone-else"

	_, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{})
	assert.ErrorIs(t, err, ErrBundleMismatch)
}

func TestRun_ProbesDistinctCollectionsOnce(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)

	var probed []string

	probe := ProbeFunc(func(_ context.Context, id string) ProbeStatus {
		probed = append(probed, id)
		return StatusReachable
	})

	rep, err := Run(context.Background(), orig, rewritten, rs, probe, Options{})
	require.NoError(t, err)

	// Two fields share crop-types-v2; it is probed once. Sorted order.
	assert.Equal(t, []string{"crop-types-v2", "districts-v2", "regions-v2"}, probed)
	require.Len(t, rep.Probes, 3)
	assert.Equal(t, "crop-types-v2", rep.Probes[0].CollectionID)
}

func TestRun_UnreachableCollectionWarns(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)

	probe := ProbeFunc(func(_ context.Context, id string) ProbeStatus {
		if id == "districts-v2" {
			return StatusUnreachable
		}

		return StatusReachable
	})

	rep, err := Run(context.Background(), orig, rewritten, rs, probe, Options{})
	require.NoError(t, err)

	// Unreachable collections warn; they never block by themselves.
	assert.True(t, rep.Passed())
	assert.False(t, rep.ProbesHealthy())
	assert.Len(t, rep.Findings.ByCode("collection_unreachable"), 1)
}

func TestRun_ProbeTimeoutCounted(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)

	probe := ProbeFunc(func(ctx context.Context, _ string) ProbeStatus {
		<-ctx.Done()
		return StatusUnreachable
	})

	rep, err := Run(context.Background(), orig, rewritten, rs, probe,
		Options{ProbeTimeout: 5 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TimedOut)
	assert.False(t, rep.ProbesHealthy())

	for _, p := range rep.Probes {
		assert.Equal(t, StatusTimedOut, p.Status)
	}

	// Slow probes degrade the report, they do not fail the validation.
	assert.True(t, rep.Passed())
}

func TestRun_FlaggedThresholds(t *testing.T) {
	orig := testBundle()
	// districts left unmapped: one flagged binding.
	rewritten, rs := migrate(orig, `
collections:
  crop-types: crop-types-v2
  regions: regions-v2
`)

	// Strict: zero tolerance blocks.
	rep, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{MaxFlagged: 0})
	require.NoError(t, err)
	assert.False(t, rep.Passed())
	require.Len(t, rep.Findings.ByCode("flagged_bindings"), 1)
	assert.Equal(t, diagnostic.SeverityError, rep.Findings.ByCode("flagged_bindings")[0].Severity)

	// Best effort: flagged bindings demote to a warning.
	rep, err = Run(context.Background(), orig, rewritten, rs, NopProbe, Options{MaxFlagged: -1})
	require.NoError(t, err)
	assert.True(t, rep.Passed())
	require.Len(t, rep.Findings.ByCode("flagged_bindings"), 1)

	// Explicit tolerance above the count passes too.
	rep, err = Run(context.Background(), orig, rewritten, rs, NopProbe, Options{MaxFlagged: 5})
	require.NoError(t, err)
	assert.True(t, rep.Passed())
}

func TestRun_DetectsDroppedSource(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)
	rewritten.FindField("farm", "crop").Source = nil

	rep, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{})
	require.NoError(t, err)

	assert.False(t, rep.Passed())
	assert.Len(t, rep.Findings.ByCode("option_source_dropped"), 1)
}

func TestRun_DetectsKindChange(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)
	rewritten.FindField("farm", "crop").Source.Kind = bundle.SourceStaticList

	rep, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{})
	require.NoError(t, err)

	assert.False(t, rep.Passed())
	assert.Len(t, rep.Findings.ByCode("option_source_kind_changed"), 1)
}

func TestRun_DetectsLostCascadeEdge(t *testing.T) {
	orig := testBundle()
	rewritten, rs := migrate(orig, fullMapping)

	district := rewritten.FindField("farm", "district")
	district.Source.Kind = bundle.SourceCollection
	district.Source.Parent = bundle.ParentRef{}
	district.Source.FilterKey = ""

	rep, err := Run(context.Background(), orig, rewritten, rs, NopProbe, Options{})
	require.NoError(t, err)

	assert.False(t, rep.Passed())
	assert.Len(t, rep.Findings.ByCode("cascade_edge_lost"), 1)
}
