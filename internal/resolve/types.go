package resolve

import (
	"mdm-migrate/internal/common"
	"mdm-migrate/internal/diagnostic"
	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/mapping"
)

// Outcome is the explicit result of resolving one binding.
type Outcome int

const (
	// OutcomeResolved - a target collection was found for the binding.
	// Carried even when the target equals the old id; the rewriter treats
	// that case as a no-op.
	OutcomeResolved Outcome = iota
	// OutcomeUnmapped - neither an override nor a collection entry matched.
	OutcomeUnmapped
	// OutcomeAmbiguous - the mapped collection's declared filter keys are
	// incompatible with the cascade parent's resolved collection.
	OutcomeAmbiguous
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnmapped:
		return "unmapped"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return common.UnknownStr
	}
}

// Confidence qualifies a resolved cascade pairing.
type Confidence int

const (
	// ConfidenceStrong - the pairing was positively checked against
	// declared filter-key metadata (or needed no check).
	ConfidenceStrong Confidence = iota
	// ConfidenceWeak - the target declares no filter keys, so the check
	// degraded to presence-only validation.
	ConfidenceWeak
)

// String returns a human-readable confidence name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceStrong:
		return "strong"
	case ConfidenceWeak:
		return "weak"
	default:
		return common.UnknownStr
	}
}

// Resolution is the outcome for one binding.
type Resolution struct {
	// Node is the graph node this resolution belongs to.
	Node discover.NodeID
	// Key addresses the bound field.
	Key discover.FieldKey
	// OldCollection is the collection the binding currently references.
	OldCollection string
	// NewCollection is the mapped target. Set only for OutcomeResolved.
	NewCollection string
	// Outcome of the resolution.
	Outcome Outcome
	// Confidence of a resolved cascade pairing.
	Confidence Confidence
	// Rule identifies which configuration rule produced the target.
	Rule mapping.RuleSource
	// Reason explains unmapped and ambiguous outcomes and weak pairings.
	Reason string
}

// Set holds one resolution per collection-referencing binding of a graph.
type Set struct {
	// Resolutions in graph node order.
	Resolutions []Resolution

	// Findings carries weak-confidence warnings and resolver infos.
	Findings diagnostic.Findings

	byField map[discover.FieldKey]int
}

// Lookup returns the resolution for a field, or nil.
func (s *Set) Lookup(formID, fieldID string) *Resolution {
	i, ok := s.byField[discover.FieldKey{FormID: formID, FieldID: fieldID}]
	if !ok {
		return nil
	}

	return &s.Resolutions[i]
}

// Counts returns the number of resolutions per outcome, plus the number of
// weak-confidence pairings among the resolved ones.
func (s *Set) Counts() (resolved, unmapped, ambiguous, weak int) {
	for _, r := range s.Resolutions {
		switch r.Outcome {
		case OutcomeResolved:
			resolved++

			if r.Confidence == ConfidenceWeak {
				weak++
			}
		case OutcomeUnmapped:
			unmapped++
		case OutcomeAmbiguous:
			ambiguous++
		}
	}

	return resolved, unmapped, ambiguous, weak
}

// Flagged returns the number of bindings needing a human decision.
func (s *Set) Flagged() int {
	_, unmapped, ambiguous, _ := s.Counts()
	return unmapped + ambiguous
}
