// Package bundle defines the in-memory model of an exported application
// bundle and the loader that parses serialized bundles into it.
//
// A Bundle is immutable once loaded. Downstream stages never mutate it; the
// rewriter builds a sibling via Clone and substitutes option sources there.
//
// Option sources are a closed tagged variant (static-list | collection |
// cascade) so that discovery and rewriting are exhaustive switches over
// SourceKind instead of string-keyed lookups into loose maps.
package bundle
