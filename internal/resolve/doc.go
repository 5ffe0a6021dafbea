// Package resolve combines a binding graph with a mapping configuration to
// produce one explicit resolution per collection-referencing binding.
//
// Resolution proceeds parent-before-child along cascade edges so that a
// child's filter-key compatibility is judged against its parent's already
// resolved collection. Every binding receives an explicit outcome (resolved,
// unmapped, or ambiguous); nothing silently defaults to its original source.
package resolve
