package discover

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-migrate/internal/bundle"
)

// buildTestBundle assembles a bundle with one root binding, one cascade
// pair, one static list, and one inert field.
func buildTestBundle() *bundle.Bundle {
	return &bundle.Bundle{
		AppID:   "farm-registry",
		Version: "3",
		Forms: []bundle.Form{
			{
				ID: "farm",
				Fields: []bundle.Field{
					{ID: "name", Kind: bundle.KindOther},
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
					{ID: "irrigated", Kind: bundle.KindRadioGroup, Source: &bundle.OptionSource{
						Kind:    bundle.SourceStaticList,
						Options: []bundle.StaticOption{{Value: "y"}, {Value: "n"}},
					}},
				},
			},
		},
	}
}

func TestDiscover_Classification(t *testing.T) {
	g := Discover(buildTestBundle())

	// Inert "name" field gets no node; the other four are selectable.
	require.Equal(t, 4, g.Len())
	assert.True(t, g.Findings.IsClean())

	crop := g.Lookup("farm", "crop")
	require.NotNil(t, crop)
	assert.Equal(t, BindingRoot, crop.Kind)
	assert.Equal(t, "crop-types", crop.CollectionID)
	assert.Equal(t, NoParent, crop.Parent)

	district := g.Lookup("farm", "district")
	require.NotNil(t, district)
	assert.Equal(t, BindingCascade, district.Kind)
	assert.Equal(t, "region-id", district.FilterKey)

	region := g.Lookup("farm", "region")
	require.NotNil(t, region)
	assert.Equal(t, region.ID, district.Parent)
	assert.Equal(t, []NodeID{district.ID}, g.Children[region.ID])

	static := g.Lookup("farm", "irrigated")
	require.NotNil(t, static)
	assert.Equal(t, BindingStatic, static.Kind)
	assert.False(t, static.Kind.ReferencesCollection())
}

func TestDiscover_Deterministic(t *testing.T) {
	b := buildTestBundle()

	first := Discover(b)

	for i := 0; i < 5; i++ {
		again := Discover(b)

		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("discovery not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestDiscover_Edges(t *testing.T) {
	g := Discover(buildTestBundle())

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, FieldKey{FormID: "farm", FieldID: "region"}, edges[0].Parent)
	assert.Equal(t, FieldKey{FormID: "farm", FieldID: "district"}, edges[0].Child)
}

// A qualified "form.field" parent reference crosses form scope; the edge
// must land in the graph like a same-form one.
func TestDiscover_CrossFormParent(t *testing.T) {
	b := &bundle.Bundle{
		AppID:   "a",
		Version: "1",
		Forms: []bundle.Form{
			{
				ID: "head",
				Fields: []bundle.Field{
					{ID: "region", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "regions",
					}},
				},
			},
			{
				ID: "detail",
				Fields: []bundle.Field{
					{ID: "district", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind:         bundle.SourceCascade,
						CollectionID: "districts",
						Parent:       bundle.ParentRef{Form: "head", Field: "region"},
						FilterKey:    "region-id",
					}},
				},
			},
		},
	}

	g := Discover(b)

	assert.True(t, g.Findings.IsClean())

	region := g.Lookup("head", "region")
	child := g.Lookup("detail", "district")
	require.NotNil(t, region)
	require.NotNil(t, child)
	assert.Equal(t, region.ID, child.Parent)

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, FieldKey{FormID: "head", FieldID: "region"}, edges[0].Parent)
	assert.Equal(t, FieldKey{FormID: "detail", FieldID: "district"}, edges[0].Child)
}

// A cascade whose parent field exists but carries no option source dangles
// off an inert field: reported, edge excluded, rest of the graph intact.
func TestDiscover_InertParent(t *testing.T) {
	b := &bundle.Bundle{
		AppID:   "a",
		Version: "1",
		Forms: []bundle.Form{
			{
				ID: "f",
				Fields: []bundle.Field{
					{ID: "plain", Kind: bundle.KindOther},
					{ID: "child", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind:         bundle.SourceCascade,
						CollectionID: "districts",
						Parent:       bundle.ParentRef{Field: "plain"},
						FilterKey:    "k",
					}},
					{ID: "crop", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "crop-types",
					}},
				},
			},
		},
	}

	g := Discover(b)

	require.Len(t, g.Findings.ByCode("dangling_cascade_parent"), 1)

	child := g.Lookup("f", "child")
	require.NotNil(t, child)
	assert.Equal(t, NoParent, child.Parent)

	// Unaffected binding still present and usable.
	require.NotNil(t, g.Lookup("f", "crop"))
}

func TestDiscover_MissingParentField(t *testing.T) {
	// Bypasses the loader on purpose: discovery must degrade, not fail,
	// when handed a bundle built in code.
	b := &bundle.Bundle{
		AppID:   "a",
		Version: "1",
		Forms: []bundle.Form{
			{
				ID: "f",
				Fields: []bundle.Field{
					{ID: "child", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind:         bundle.SourceCascade,
						CollectionID: "districts",
						Parent:       bundle.ParentRef{Field: "ghost"},
						FilterKey:    "k",
					}},
				},
			},
		},
	}

	g := Discover(b)

	require.Len(t, g.Findings.ByCode("dangling_cascade_parent"), 1)
	assert.Equal(t, NoParent, g.Lookup("f", "child").Parent)
}

func TestDiscover_CascadeCycle(t *testing.T) {
	cascade := func(id, parent, collection string) bundle.Field {
		return bundle.Field{ID: id, Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
			Kind:         bundle.SourceCascade,
			CollectionID: collection,
			Parent:       bundle.ParentRef{Field: parent},
			FilterKey:    "k",
		}}
	}

	b := &bundle.Bundle{
		AppID:   "a",
		Version: "1",
		Forms: []bundle.Form{
			{
				ID: "f",
				Fields: []bundle.Field{
					cascade("x", "y", "c1"),
					cascade("y", "x", "c2"),
					// Hangs off the loop but is not part of it.
					cascade("z", "y", "c3"),
					{ID: "crop", Kind: bundle.KindSingleSelect, Source: &bundle.OptionSource{
						Kind: bundle.SourceCollection, CollectionID: "crop-types",
					}},
				},
			},
		},
	}

	g := Discover(b)

	// Both loop edges reported and cut.
	assert.Len(t, g.Findings.ByCode("cascade_cycle"), 2)
	assert.Equal(t, NoParent, g.Lookup("f", "x").Parent)
	assert.Equal(t, NoParent, g.Lookup("f", "y").Parent)

	// The dependent keeps its edge; its chain now terminates.
	z := g.Lookup("f", "z")
	require.NotNil(t, z)
	assert.Equal(t, g.Lookup("f", "y").ID, z.Parent)

	// The rest of the bundle is still processable.
	require.NotNil(t, g.Lookup("f", "crop"))
}
