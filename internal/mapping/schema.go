package mapping

import (
	"sort"

	"mdm-migrate/internal/common"
)

// Config is the root of a YAML mapping configuration document.
// This is the authoritative, human-reviewed migration mapping.
type Config struct {
	// Version of the mapping schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Collections maps old collection ids to their migration rule.
	Collections map[string]CollectionRule `yaml:"collections"`

	// Overrides pin individual fields to explicit target collections.
	// An override always beats the collection-level entry for its binding.
	Overrides []Override `yaml:"overrides,omitempty"`
}

// CollectionRule describes where one old collection moves to.
// YAML formats supported:
//   - Scalar shorthand: `crop-types: crop-types-v2`
//   - Full rule: `crop-types: {target: crop-types-v2, filterKeys: [...]}`
type CollectionRule struct {
	// Target is the new collection id.
	Target string `yaml:"target"`

	// FilterKeys optionally declares the filter keys the target collection
	// exposes. Absence degrades cascade checks to presence-only validation.
	FilterKeys FilterKeyArray `yaml:"filterKeys,omitempty"`
}

// FilterKey is one filter key declared by a target collection. Parent
// optionally names the parent collection the key filters by; when present
// it makes cascade compatibility decidable instead of presence-only.
// YAML formats supported:
//   - Plain key: "region-v2-id"
//   - Key linked to a parent collection: {region-v2-id: regions-v2}
type FilterKey struct {
	Key    string
	Parent string
}

// FilterKeyArray is a collection of FilterKey declarations.
type FilterKeyArray []FilterKey

// IsEmpty returns true if no filter keys are declared.
func (a FilterKeyArray) IsEmpty() bool {
	return common.IsEmpty(a)
}

// Keys returns just the key names.
func (a FilterKeyArray) Keys() []string {
	out := make([]string, len(a))
	for i, fk := range a {
		out[i] = fk.Key
	}

	return out
}

// HasParentLinks returns true if any key declares its parent collection.
func (a FilterKeyArray) HasParentLinks() bool {
	for _, fk := range a {
		if fk.Parent != "" {
			return true
		}
	}

	return false
}

// LinksParent returns true if any key declares the given parent collection.
func (a FilterKeyArray) LinksParent(collectionID string) bool {
	for _, fk := range a {
		if fk.Parent == collectionID {
			return true
		}
	}

	return false
}

// Override pins one field's binding to an explicit target collection.
type Override struct {
	Form   string `yaml:"form"`
	Field  string `yaml:"field"`
	Target string `yaml:"target"`
}

// RuleSource indicates where a lookup result originated.
type RuleSource int

const (
	// RuleNone - no entry matched.
	RuleNone RuleSource = iota
	// RuleOverride - a field-level override (highest priority).
	RuleOverride
	// RuleCollection - the collection-level entry.
	RuleCollection
)

// String returns a human-readable source name.
func (s RuleSource) String() string {
	switch s {
	case RuleNone:
		return "none"
	case RuleOverride:
		return "override"
	case RuleCollection:
		return "collection"
	default:
		return common.UnknownStr
	}
}

// LookupResult is the outcome of resolving one binding against the config.
type LookupResult struct {
	// Target is the new collection id. Empty when Source is RuleNone.
	Target string
	// Source identifies which rule produced the target.
	Source RuleSource
}

// Found returns true if any rule matched.
func (r LookupResult) Found() bool {
	return r.Source != RuleNone
}

// Lookup resolves the target collection for a binding. Field-level
// overrides take precedence over the collection-level entry. A collection
// id that already equals some rule's target resolves to itself, so a
// migrated bundle resolves the same way on a repeated run.
func (c *Config) Lookup(formID, fieldID, collectionID string) LookupResult {
	for _, ov := range c.Overrides {
		if ov.Form == formID && ov.Field == fieldID {
			return LookupResult{Target: ov.Target, Source: RuleOverride}
		}
	}

	if rule, ok := c.Collections[collectionID]; ok {
		return LookupResult{Target: rule.Target, Source: RuleCollection}
	}

	if _, ok := c.TargetFilterKeys(collectionID); ok {
		return LookupResult{Target: collectionID, Source: RuleCollection}
	}

	return LookupResult{}
}

// TargetFilterKeys returns the filter keys declared for a target collection
// id, or false if no rule declares that target.
func (c *Config) TargetFilterKeys(targetID string) (FilterKeyArray, bool) {
	// Deterministic scan: map iteration order must not leak into outcomes.
	ids := make([]string, 0, len(c.Collections))
	for id := range c.Collections {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		if rule := c.Collections[id]; rule.Target == targetID {
			return rule.FilterKeys, true
		}
	}

	return nil, false
}
