// Package rewrite applies a resolution set to a bundle, producing a sibling
// bundle with remapped option sources plus a change log.
//
// Only collection ids of resolved bindings change; sibling fields, form
// ordering, and non-selectable fields are untouched. The operation is
// idempotent: rewriting the output again with the same mapping yields zero
// further change-log entries, because every previously resolved binding then
// resolves to its own current collection and old == new is a no-op.
package rewrite
