package pipeline

import (
	"encoding/json"

	"mdm-migrate/internal/diagnostic"
	"mdm-migrate/internal/rewrite"
	"mdm-migrate/internal/validate"
)

// Report is the migration report of one run. It is always produced for any
// input the loader accepted, even when the run is blocked, so the caller
// can see what is safe to commit versus what needs a human decision.
type Report struct {
	RunID string `json:"runId"`
	Ref   string `json:"ref"`

	AppID   string `json:"appId"`
	Version string `json:"version"`

	// TotalBindings is the number of collection-referencing bindings
	// discovered in the bundle.
	TotalBindings int `json:"totalBindings"`

	Resolved       int `json:"resolved"`
	Unmapped       int `json:"unmapped"`
	Ambiguous      int `json:"ambiguous"`
	WeakConfidence int `json:"weakConfidence"`

	// Findings aggregates soft findings from discovery, mapping
	// validation, and resolution.
	Findings diagnostic.Findings `json:"findings"`

	ChangeLog  *rewrite.ChangeLog `json:"changeLog,omitempty"`
	Validation *validate.Report   `json:"validation,omitempty"`

	// Committed is true once the rewritten bundle was handed to the store.
	Committed bool `json:"committed"`

	// OutputRef is the stored bundle's reference when committed.
	OutputRef string `json:"outputRef,omitempty"`
}

// MarshalIndent renders the report as indented JSON.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
