package discover

import (
	"mdm-migrate/internal/common"
	"mdm-migrate/internal/diagnostic"
)

// NodeID indexes a node in the graph's arena. NoParent marks a root.
type NodeID int

// NoParent is the parent id of root bindings.
const NoParent NodeID = -1

// BindingKind classifies a binding node.
type BindingKind int

const (
	// BindingStatic is a selectable field backed by an inline static list.
	// It references no collection but can still anchor cascade edges.
	BindingStatic BindingKind = iota
	// BindingRoot is a direct collection reference with no cascade parent.
	BindingRoot
	// BindingCascade is a collection reference filtered by a parent field.
	BindingCascade
)

// String returns a human-readable kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingStatic:
		return "static"
	case BindingRoot:
		return "root"
	case BindingCascade:
		return "cascade"
	default:
		return common.UnknownStr
	}
}

// ReferencesCollection returns true for kinds that bind to a reference-data
// collection and therefore receive a resolution.
func (k BindingKind) ReferencesCollection() bool {
	return k == BindingRoot || k == BindingCascade
}

// FieldKey addresses a field across the whole bundle.
type FieldKey struct {
	FormID  string
	FieldID string
}

// String returns "form.field".
func (k FieldKey) String() string {
	return k.FormID + "." + k.FieldID
}

// Node is one binding: field F in form Fm references collection C,
// optionally filtered by a parent binding.
type Node struct {
	ID           NodeID
	Key          FieldKey
	Kind         BindingKind
	CollectionID string

	// FilterKey is set for cascade bindings only.
	FilterKey string

	// Parent is the cascade parent node, or NoParent for roots and for
	// cascade bindings whose parent edge was excluded by a finding.
	Parent NodeID
}

// Graph is the binding graph of one bundle. Nodes are held in an arena
// indexed by NodeID; edges are the Parent references plus the derived
// Children lists.
type Graph struct {
	Nodes []Node

	// Children holds, per node, the sorted child node ids.
	Children [][]NodeID

	// ByField indexes nodes by their field address.
	ByField map[FieldKey]NodeID

	// Findings carries soft structural problems: dangling_cascade_parent,
	// cascade_cycle, unknown_source_kind.
	Findings diagnostic.Findings
}

// Len returns the number of binding nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Node returns the node with the given id. Panics on out-of-range ids;
// those only come from caller bugs.
func (g *Graph) Node(id NodeID) *Node {
	return &g.Nodes[id]
}

// Lookup returns the node bound to the given field, or nil.
func (g *Graph) Lookup(formID, fieldID string) *Node {
	id, ok := g.ByField[FieldKey{FormID: formID, FieldID: fieldID}]
	if !ok {
		return nil
	}

	return &g.Nodes[id]
}

// Edges returns all parent→child pairs as field-key pairs, in node order.
// Used by the validator to compare cascade structure across bundles.
func (g *Graph) Edges() []EdgePair {
	var out []EdgePair

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Parent == NoParent {
			continue
		}

		out = append(out, EdgePair{
			Parent: g.Nodes[n.Parent].Key,
			Child:  n.Key,
		})
	}

	return out
}

// EdgePair is one cascade parent→child relation by field address.
type EdgePair struct {
	Parent FieldKey
	Child  FieldKey
}
