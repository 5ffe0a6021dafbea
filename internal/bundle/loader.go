package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// FormatVersion is the bundle wire-format version this loader supports.
const FormatVersion = 1

// Sentinel load errors. Wrapped errors carry detail; match with errors.Is.
var (
	// ErrMalformedBundle reports a structural schema violation.
	ErrMalformedBundle = errors.New("malformed bundle")
	// ErrUnsupportedVersion reports a bundle format newer or older than supported.
	ErrUnsupportedVersion = errors.New("unsupported bundle format version")
	// ErrTruncatedInput reports input that ends mid-document.
	ErrTruncatedInput = errors.New("truncated bundle input")
)

// envelope is the wire-level wrapper around the bundle model.
type envelope struct {
	FormatVersion int `json:"formatVersion"`
	Bundle
}

// LoadFile reads and parses a serialized bundle from the given path.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses serialized bundle bytes into a Bundle. It is a pure parse:
// no side effects, and it fails closed on any structural violation.
//
// Referential integrity is validated at the syntactic level only (fields
// belong to declared forms, cascade parent names resolve to declared field
// identifiers). Semantic reference-data validity is the validator's job.
func Parse(data []byte) (*Bundle, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrTruncatedInput)
	}

	var env envelope

	err := json.Unmarshal(data, &env)
	if err != nil {
		if truncated(err, data) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedInput, err)
		}

		return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}

	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, supported %d",
			ErrUnsupportedVersion, env.FormatVersion, FormatVersion)
	}

	b := env.Bundle
	if err := checkStructure(&b); err != nil {
		return nil, err
	}

	return &b, nil
}

// truncated reports whether a decode error means the input ended early
// rather than being structurally wrong.
func truncated(err error, data []byte) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Offset >= int64(len(data))
	}

	return false
}

// checkStructure enforces the syntactic schema of a decoded bundle.
func checkStructure(b *Bundle) error {
	if b.AppID == "" {
		return fmt.Errorf("%w: missing appId", ErrMalformedBundle)
	}

	if b.Version == "" {
		return fmt.Errorf("%w: missing version", ErrMalformedBundle)
	}

	seenForms := make(map[string]struct{}, len(b.Forms))

	for fi := range b.Forms {
		form := &b.Forms[fi]
		if form.ID == "" {
			return fmt.Errorf("%w: form at index %d has no id", ErrMalformedBundle, fi)
		}

		if _, dup := seenForms[form.ID]; dup {
			return fmt.Errorf("%w: duplicate form id %q", ErrMalformedBundle, form.ID)
		}

		seenForms[form.ID] = struct{}{}

		seenFields := make(map[string]struct{}, len(form.Fields))

		for _, field := range form.Fields {
			if field.ID == "" {
				return fmt.Errorf("%w: form %q has a field with no id", ErrMalformedBundle, form.ID)
			}

			if _, dup := seenFields[field.ID]; dup {
				return fmt.Errorf("%w: form %q: duplicate field id %q",
					ErrMalformedBundle, form.ID, field.ID)
			}

			seenFields[field.ID] = struct{}{}

			if err := checkField(form.ID, field); err != nil {
				return err
			}
		}
	}

	return checkParentRefs(b)
}

// checkField validates one field's kind/source pairing and source shape.
func checkField(formID string, field Field) error {
	if !field.Kind.IsValid() {
		return fmt.Errorf("%w: form %q field %q: unknown kind %q",
			ErrMalformedBundle, formID, field.ID, field.Kind)
	}

	if !field.Kind.Selectable() {
		if field.Source != nil {
			return fmt.Errorf("%w: form %q field %q: kind %q must not carry an option source",
				ErrMalformedBundle, formID, field.ID, field.Kind)
		}

		return nil
	}

	if field.Source == nil {
		return fmt.Errorf("%w: form %q field %q: selectable kind %q requires an option source",
			ErrMalformedBundle, formID, field.ID, field.Kind)
	}

	src := field.Source

	switch src.Kind {
	case SourceStaticList:
		if src.CollectionID != "" || !src.Parent.IsZero() {
			return fmt.Errorf("%w: form %q field %q: static-list source with collection data",
				ErrMalformedBundle, formID, field.ID)
		}

	case SourceCollection:
		if src.CollectionID == "" {
			return fmt.Errorf("%w: form %q field %q: collection source without collectionId",
				ErrMalformedBundle, formID, field.ID)
		}

		if !src.Parent.IsZero() || src.FilterKey != "" {
			return fmt.Errorf("%w: form %q field %q: collection source with cascade data",
				ErrMalformedBundle, formID, field.ID)
		}

	case SourceCascade:
		if src.CollectionID == "" {
			return fmt.Errorf("%w: form %q field %q: cascade source without collectionId",
				ErrMalformedBundle, formID, field.ID)
		}

		if src.Parent.Field == "" {
			return fmt.Errorf("%w: form %q field %q: cascade source without parent",
				ErrMalformedBundle, formID, field.ID)
		}

		if src.FilterKey == "" {
			return fmt.Errorf("%w: form %q field %q: cascade source without filterKey",
				ErrMalformedBundle, formID, field.ID)
		}

	default:
		return fmt.Errorf("%w: form %q field %q: unknown option source type %q",
			ErrMalformedBundle, formID, field.ID, src.Kind)
	}

	return nil
}

// checkParentRefs verifies every cascade parent name resolves to a declared
// field identifier, either in the same form or via a qualified cross-form
// reference. Whether the parent is itself a usable binding is a discovery
// concern, not a load concern.
func checkParentRefs(b *Bundle) error {
	for _, form := range b.Forms {
		for _, field := range form.Fields {
			if field.Source == nil || field.Source.Kind != SourceCascade {
				continue
			}

			ref := field.Source.Parent

			targetForm := form.ID
			if ref.Form != "" {
				targetForm = ref.Form
			}

			if b.FindField(targetForm, ref.Field) == nil {
				return fmt.Errorf("%w: form %q field %q: cascade parent %q does not exist",
					ErrMalformedBundle, form.ID, field.ID, ref.String())
			}
		}
	}

	return nil
}
