// Package mapping defines the externally supplied mapping configuration:
// which new reference-data collection each old collection moves to.
//
// The configuration is a YAML document. Collection entries accept a scalar
// shorthand ("old-id: new-id") or a full rule with the target id and the
// filter keys the target collection exposes. Field-level overrides pin a
// specific form/field to an explicit target and always take precedence over
// the collection-level entry.
//
// The configuration is an explicit value threaded through the pipeline,
// never ambient state, so concurrent migrations with different mappings
// cannot interfere.
package mapping
