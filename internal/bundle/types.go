package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bundle is the root of the model: one exported application snapshot.
// Identified by application id plus version. Forms and processes keep the
// order they had in the serialized artifact.
type Bundle struct {
	AppID     string    `json:"appId"`
	Version   string    `json:"version"`
	Forms     []Form    `json:"forms"`
	Processes []Process `json:"processes,omitempty"`
}

// Form is an ordered sequence of fields belonging to exactly one bundle.
// Field order matters for rendering but not for correctness checks.
type Form struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Fields []Field `json:"fields"`
}

// Field belongs to exactly one form. Selectable kinds carry an option
// source; fields of kind "other" never do and are inert to the engine.
type Field struct {
	ID     string        `json:"id"`
	Label  string        `json:"label,omitempty"`
	Kind   FieldKind     `json:"kind"`
	Source *OptionSource `json:"optionSource,omitempty"`
}

// Process is an opaque process definition carried through unchanged.
type Process struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// FieldKind classifies a field. Only the selectable kinds participate in
// binding discovery.
type FieldKind string

const (
	KindSingleSelect FieldKind = "single-select"
	KindMultiSelect  FieldKind = "multi-select"
	KindRadioGroup   FieldKind = "radio-group"
	KindOther        FieldKind = "other"
)

// IsValid returns true if the kind is a recognized value.
func (k FieldKind) IsValid() bool {
	switch k {
	case KindSingleSelect, KindMultiSelect, KindRadioGroup, KindOther:
		return true
	default:
		return false
	}
}

// Selectable returns true if fields of this kind carry an option source.
func (k FieldKind) Selectable() bool {
	return k.IsValid() && k != KindOther
}

// SourceKind discriminates the option-source variant.
type SourceKind string

const (
	// SourceStaticList is an inline list of literal (value, label) pairs.
	SourceStaticList SourceKind = "static-list"
	// SourceCollection references an external reference-data collection.
	SourceCollection SourceKind = "collection"
	// SourceCascade references a collection filtered by a parent field's
	// current selection.
	SourceCascade SourceKind = "cascade"
)

// IsValid returns true if the kind is a recognized value.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceStaticList, SourceCollection, SourceCascade:
		return true
	default:
		return false
	}
}

// OptionSource describes where a selectable field's choices come from.
// Exactly one variant is populated, discriminated by Kind:
//
//   - SourceStaticList: Options
//   - SourceCollection: CollectionID
//   - SourceCascade: CollectionID, Parent, FilterKey
type OptionSource struct {
	Kind SourceKind `json:"type"`

	// Options holds the literal choices for static-list sources.
	Options []StaticOption `json:"options,omitempty"`

	// CollectionID names the reference-data collection for collection and
	// cascade sources.
	CollectionID string `json:"collectionId,omitempty"`

	// Parent names the cascade parent field ("field" or "form.field").
	Parent ParentRef `json:"parent,omitzero"`

	// FilterKey is the key the cascade filters the collection by.
	FilterKey string `json:"filterKey,omitempty"`
}

// StaticOption is one literal choice of a static-list source.
type StaticOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// ParentRef identifies a cascade parent field. Form is empty for a parent in
// the same form; a qualified "form.field" reference crosses form scope.
type ParentRef struct {
	Form  string
	Field string
}

// ParseParentRef parses "field" or "form.field" into a ParentRef.
func ParseParentRef(s string) ParentRef {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return ParentRef{Form: s[:i], Field: s[i+1:]}
	}

	return ParentRef{Field: s}
}

// IsZero returns true if no parent is referenced.
func (p ParentRef) IsZero() bool {
	return p.Form == "" && p.Field == ""
}

// String returns the serialized form of the reference.
func (p ParentRef) String() string {
	if p.Form == "" {
		return p.Field
	}

	return p.Form + "." + p.Field
}

// MarshalJSON serializes the reference as its string form.
func (p ParentRef) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON parses the string form of the reference. An explicit null
// means no parent.
func (p *ParentRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ParentRef{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parent reference must be a string: %w", err)
	}

	*p = ParseParentRef(s)

	return nil
}

// FindForm returns the form with the given id, or nil.
func (b *Bundle) FindForm(formID string) *Form {
	for i := range b.Forms {
		if b.Forms[i].ID == formID {
			return &b.Forms[i]
		}
	}

	return nil
}

// FindField returns the field with the given id in the given form, or nil.
func (b *Bundle) FindField(formID, fieldID string) *Field {
	f := b.FindForm(formID)
	if f == nil {
		return nil
	}

	for i := range f.Fields {
		if f.Fields[i].ID == fieldID {
			return &f.Fields[i]
		}
	}

	return nil
}

// SameIdentity returns true if both bundles describe the same application
// identifier and version pair.
func (b *Bundle) SameIdentity(other *Bundle) bool {
	return other != nil && b.AppID == other.AppID && b.Version == other.Version
}

// Clone returns a deep copy of the bundle. The copy shares nothing with the
// original, so rewriting it can never corrupt the loaded model.
func (b *Bundle) Clone() *Bundle {
	out := &Bundle{
		AppID:   b.AppID,
		Version: b.Version,
	}

	if b.Forms != nil {
		out.Forms = make([]Form, len(b.Forms))
		for i := range b.Forms {
			out.Forms[i] = b.Forms[i].clone()
		}
	}

	if b.Processes != nil {
		out.Processes = append([]Process(nil), b.Processes...)
	}

	return out
}

func (f Form) clone() Form {
	out := Form{ID: f.ID, Name: f.Name}

	if f.Fields != nil {
		out.Fields = make([]Field, len(f.Fields))
		for i := range f.Fields {
			out.Fields[i] = f.Fields[i].clone()
		}
	}

	return out
}

func (f Field) clone() Field {
	out := Field{ID: f.ID, Label: f.Label, Kind: f.Kind}

	if f.Source != nil {
		src := *f.Source
		if src.Options != nil {
			src.Options = append([]StaticOption(nil), src.Options...)
		}

		out.Source = &src
	}

	return out
}
