// Package discover walks a bundle and extracts every reference-data binding
// into an arena-style binding graph.
//
// Nodes are bindings (selectable fields whose option source references a
// collection), edges are cascade parent→child relations. Structural problems
// (dangling or inert cascade parents, cascade cycles) are attached to the
// graph as findings so the unaffected remainder of the bundle stays
// processable.
//
// Discovery is a single linear pass over the bundle's fields and its output
// is deterministic: nodes appear in bundle order and child lists are sorted.
package discover
