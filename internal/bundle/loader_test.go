package bundle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBundle = `{
  "formatVersion": 1,
  "appId": "farm-registry",
  "version": "3",
  "forms": [
    {
      "id": "farm",
      "name": "Farm Registration",
      "fields": [
        {"id": "name", "kind": "other"},
        {"id": "crop", "kind": "single-select",
         "optionSource": {"type": "collection", "collectionId": "crop-types"}},
        {"id": "region", "kind": "single-select",
         "optionSource": {"type": "collection", "collectionId": "regions"}},
        {"id": "district", "kind": "single-select",
         "optionSource": {"type": "cascade", "collectionId": "districts",
                          "parent": "region", "filterKey": "region-id"}},
        {"id": "irrigated", "kind": "radio-group",
         "optionSource": {"type": "static-list",
                          "options": [{"value": "y", "label": "Yes"}, {"value": "n", "label": "No"}]}}
      ]
    }
  ],
  "processes": [{"id": "approval", "name": "Registration Approval"}]
}`

func TestParse_ValidBundle(t *testing.T) {
	b, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	assert.Equal(t, "farm-registry", b.AppID)
	assert.Equal(t, "3", b.Version)
	require.Len(t, b.Forms, 1)
	require.Len(t, b.Forms[0].Fields, 5)

	district := b.FindField("farm", "district")
	require.NotNil(t, district)
	require.NotNil(t, district.Source)
	assert.Equal(t, SourceCascade, district.Source.Kind)
	assert.Equal(t, "districts", district.Source.CollectionID)
	assert.Equal(t, ParentRef{Field: "region"}, district.Source.Parent)
	assert.Equal(t, "region-id", district.Source.FilterKey)

	name := b.FindField("farm", "name")
	require.NotNil(t, name)
	assert.Nil(t, name.Source)
}

func TestParse_TruncatedInput(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = Parse([]byte("   \n"))
	assert.ErrorIs(t, err, ErrTruncatedInput)

	// Cut mid-document.
	_, err = Parse([]byte(validBundle[:len(validBundle)/2]))
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte(`{"formatVersion": 2, "appId": "a", "version": "1", "forms": []}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	// Missing format version is not a supported one either.
	_, err = Parse([]byte(`{"appId": "a", "version": "1", "forms": []}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParse_MalformedBundle(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json structure", `{"formatVersion": 1, "appId": "a", "version": "1", "forms": 42}`},
		{"missing app id", `{"formatVersion": 1, "version": "1", "forms": []}`},
		{"missing version", `{"formatVersion": 1, "appId": "a", "forms": []}`},
		{"duplicate form id", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": []}, {"id": "f", "fields": []}]}`},
		{"duplicate field id", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [
				{"id": "x", "kind": "other"}, {"id": "x", "kind": "other"}]}]}`},
		{"unknown kind", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [{"id": "x", "kind": "dropdown"}]}]}`},
		{"selectable without source", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [{"id": "x", "kind": "single-select"}]}]}`},
		{"inert kind with source", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [{"id": "x", "kind": "other",
				"optionSource": {"type": "collection", "collectionId": "c"}}]}]}`},
		{"collection without id", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [{"id": "x", "kind": "single-select",
				"optionSource": {"type": "collection"}}]}]}`},
		{"cascade without filter key", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [
				{"id": "p", "kind": "single-select",
				 "optionSource": {"type": "collection", "collectionId": "c"}},
				{"id": "x", "kind": "single-select",
				 "optionSource": {"type": "cascade", "collectionId": "d", "parent": "p"}}]}]}`},
		{"unknown source type", `{"formatVersion": 1, "appId": "a", "version": "1",
			"forms": [{"id": "f", "fields": [{"id": "x", "kind": "single-select",
				"optionSource": {"type": "lookup", "collectionId": "c"}}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.json))
			assert.ErrorIs(t, err, ErrMalformedBundle)
		})
	}
}

// A cascade parent that names no declared field is a structural violation
// caught at load time; no later stage ever sees the bundle.
func TestParse_DanglingParentRef(t *testing.T) {
	_, err := Parse([]byte(`{"formatVersion": 1, "appId": "a", "version": "1",
		"forms": [{"id": "f", "fields": [
			{"id": "x", "kind": "single-select",
			 "optionSource": {"type": "cascade", "collectionId": "d",
			                  "parent": "ghost", "filterKey": "k"}}]}]}`))
	assert.ErrorIs(t, err, ErrMalformedBundle)
}

func TestParse_CrossFormParentRef(t *testing.T) {
	b, err := Parse([]byte(`{"formatVersion": 1, "appId": "a", "version": "1",
		"forms": [
			{"id": "head", "fields": [
				{"id": "region", "kind": "single-select",
				 "optionSource": {"type": "collection", "collectionId": "regions"}}]},
			{"id": "detail", "fields": [
				{"id": "district", "kind": "single-select",
				 "optionSource": {"type": "cascade", "collectionId": "districts",
				                  "parent": "head.region", "filterKey": "region-id"}}]}]}`))
	require.NoError(t, err)

	field := b.FindField("detail", "district")
	require.NotNil(t, field)
	assert.Equal(t, ParentRef{Form: "head", Field: "region"}, field.Source.Parent)
}

// Exporters that emit every key serialize non-cascade sources with an
// explicit "parent": null; that is a valid absent parent, not a reference.
func TestParse_ExplicitNullParent(t *testing.T) {
	b, err := Parse([]byte(`{"formatVersion": 1, "appId": "a", "version": "1",
		"forms": [{"id": "f", "fields": [
			{"id": "crop", "kind": "single-select",
			 "optionSource": {"type": "collection", "collectionId": "crop-types",
			                  "parent": null}}]}]}`))
	require.NoError(t, err)

	field := b.FindField("f", "crop")
	require.NotNil(t, field)
	assert.True(t, field.Source.Parent.IsZero())
}

func TestParse_NonStringParent(t *testing.T) {
	_, err := Parse([]byte(`{"formatVersion": 1, "appId": "a", "version": "1",
		"forms": [{"id": "f", "fields": [
			{"id": "x", "kind": "single-select",
			 "optionSource": {"type": "cascade", "collectionId": "d",
			                  "parent": 5, "filterKey": "k"}}]}]}`))
	assert.ErrorIs(t, err, ErrMalformedBundle)
}

func TestMarshal_RoundTrip(t *testing.T) {
	b, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	data, err := Marshal(b)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)

	if diff := cmp.Diff(b, again); diff != "" {
		t.Fatalf("round trip changed the bundle (-want +got):\n%s", diff)
	}
}

func TestClone_SharesNothing(t *testing.T) {
	b, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	clone := b.Clone()

	if diff := cmp.Diff(b, clone); diff != "" {
		t.Fatalf("clone differs from original (-want +got):\n%s", diff)
	}

	clone.Forms[0].Fields[1].Source.CollectionID = "crop-types-v2"
	clone.Forms[0].Fields[4].Source.Options[0].Label = "Changed"

	assert.Equal(t, "crop-types", b.Forms[0].Fields[1].Source.CollectionID)
	assert.Equal(t, "Yes", b.Forms[0].Fields[4].Source.Options[0].Label)
}

func TestParseParentRef(t *testing.T) {
	assert.Equal(t, ParentRef{Field: "region"}, ParseParentRef("region"))
	assert.Equal(t, ParentRef{Form: "head", Field: "region"}, ParseParentRef("head.region"))
	assert.Equal(t, "head.region", ParentRef{Form: "head", Field: "region"}.String())
}
