package rewrite

import (
	"fmt"

	"mdm-migrate/internal/bundle"
	"mdm-migrate/internal/resolve"
)

// Entry records one applied remapping.
type Entry struct {
	FormID        string `json:"formId"`
	FieldID       string `json:"fieldId"`
	OldCollection string `json:"oldCollection"`
	NewCollection string `json:"newCollection"`
}

// SkippedEntry records a binding left untouched, with its resolution tag,
// so the caller can decide whether to proceed.
type SkippedEntry struct {
	FormID     string `json:"formId"`
	FieldID    string `json:"fieldId"`
	Collection string `json:"collection"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
}

// ChangeLog is the diff produced by one rewrite pass.
type ChangeLog struct {
	// Entries are the applied remappings. Empty on a repeated pass.
	Entries []Entry `json:"entries"`
	// Skipped are the unmapped and ambiguous bindings left as-is.
	Skipped []SkippedEntry `json:"skipped,omitempty"`
}

// IsEmpty returns true if the pass applied no remappings.
func (c *ChangeLog) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Rewrite applies a resolution set to a bundle and returns a new bundle
// plus the change log. The input bundle is never mutated.
//
// A resolution addressing a field that does not exist in the bundle, or a
// field without an option source, is a contract violation by the caller
// (the set was computed from a different bundle) and panics.
func Rewrite(b *bundle.Bundle, rs *resolve.Set) (*bundle.Bundle, *ChangeLog) {
	out := b.Clone()
	log := &ChangeLog{}

	for i := range rs.Resolutions {
		r := &rs.Resolutions[i]

		field := out.FindField(r.Key.FormID, r.Key.FieldID)
		if field == nil {
			panic(fmt.Sprintf("rewrite: resolution addresses unknown field %s in bundle %s@%s",
				r.Key.String(), b.AppID, b.Version))
		}

		if field.Source == nil || !field.Source.Kind.IsValid() {
			panic(fmt.Sprintf("rewrite: resolution addresses field %s without a valid option source",
				r.Key.String()))
		}

		switch r.Outcome {
		case resolve.OutcomeResolved:
			if r.NewCollection == r.OldCollection {
				// Already carries the target id; re-running is a no-op.
				continue
			}

			field.Source.CollectionID = r.NewCollection

			log.Entries = append(log.Entries, Entry{
				FormID:        r.Key.FormID,
				FieldID:       r.Key.FieldID,
				OldCollection: r.OldCollection,
				NewCollection: r.NewCollection,
			})

		case resolve.OutcomeUnmapped, resolve.OutcomeAmbiguous:
			log.Skipped = append(log.Skipped, SkippedEntry{
				FormID:     r.Key.FormID,
				FieldID:    r.Key.FieldID,
				Collection: r.OldCollection,
				Outcome:    r.Outcome.String(),
				Reason:     r.Reason,
			})
		}
	}

	return out, log
}
