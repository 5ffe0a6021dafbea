package resolve

import (
	"fmt"

	"mdm-migrate/internal/discover"
	"mdm-migrate/internal/mapping"
)

// Resolve produces a resolution for every collection-referencing binding in
// the graph. Static-list bindings reference no collection and receive none.
//
// The graph must be acyclic; discovery cuts cascade loops before handing the
// graph over, so a cycle here is a caller defect and panics.
func Resolve(g *discover.Graph, cfg *mapping.Config) *Set {
	order, err := topoSortNodes(g.Len(), func(i int) []int {
		p := g.Nodes[i].Parent
		if p == discover.NoParent {
			return nil
		}

		return []int{int(p)}
	})
	if err != nil {
		panic(fmt.Sprintf("resolve: binding graph is not acyclic: %v", err))
	}

	s := &Set{
		byField: make(map[discover.FieldKey]int),
	}

	// One resolution slot per node, filled in topological order so parents
	// are decided before their cascade children. The final slice is
	// compacted back to graph node order for deterministic output.
	byNode := make([]*Resolution, g.Len())

	for _, i := range order {
		node := &g.Nodes[i]
		if !node.Kind.ReferencesCollection() {
			continue
		}

		r := resolveNode(g, cfg, node, byNode)
		byNode[i] = &r
	}

	for i := range byNode {
		if byNode[i] == nil {
			continue
		}

		r := *byNode[i]

		s.byField[r.Key] = len(s.Resolutions)
		s.Resolutions = append(s.Resolutions, r)

		switch {
		case r.Outcome == OutcomeResolved && r.Confidence == ConfidenceWeak:
			s.Findings.AddWarning("weak_confidence", r.Reason, r.Key.FormID, r.Key.FieldID)
		case r.Outcome == OutcomeAmbiguous:
			s.Findings.AddWarning("ambiguous_binding", r.Reason, r.Key.FormID, r.Key.FieldID)
		case r.Outcome == OutcomeUnmapped:
			s.Findings.AddInfo("unmapped_binding", r.Reason, r.Key.FormID, r.Key.FieldID)
		}
	}

	return s
}

// resolveNode decides the outcome for a single binding.
func resolveNode(g *discover.Graph, cfg *mapping.Config, node *discover.Node, byNode []*Resolution) Resolution {
	r := Resolution{
		Node:          node.ID,
		Key:           node.Key,
		OldCollection: node.CollectionID,
	}

	hit := cfg.Lookup(node.Key.FormID, node.Key.FieldID, node.CollectionID)
	if !hit.Found() {
		r.Outcome = OutcomeUnmapped
		r.Reason = fmt.Sprintf("no mapping entry for collection %q", node.CollectionID)

		return r
	}

	r.Rule = hit.Source
	r.NewCollection = hit.Target
	r.Outcome = OutcomeResolved

	if node.Kind != discover.BindingCascade || node.Parent == discover.NoParent {
		return r
	}

	checkCascade(g, cfg, node, byNode, &r)

	return r
}

// checkCascade judges a resolved cascade child against its parent's
// resolved collection using the declared filter-key metadata of the child's
// target collection.
//
// Declared keys with parent links make the check decidable: if none of the
// target's keys links the parent's collection, the pairing is ambiguous.
// Declared keys without links are accepted as-is. No declared keys at all
// degrades to presence-only validation with a weak-confidence tag.
func checkCascade(g *discover.Graph, cfg *mapping.Config, node *discover.Node, byNode []*Resolution, r *Resolution) {
	parent := g.Node(node.Parent)

	// The collection the parent will reference after the rewrite. Unmapped
	// and ambiguous parents keep their original collection; static parents
	// have none and the check degrades to presence-only.
	parentCollection := parent.CollectionID

	if pr := byNode[parent.ID]; pr != nil && pr.Outcome == OutcomeResolved {
		parentCollection = pr.NewCollection
	}

	keys, declared := cfg.TargetFilterKeys(r.NewCollection)
	if !declared || keys.IsEmpty() {
		r.Confidence = ConfidenceWeak
		r.Reason = fmt.Sprintf("collection %q declares no filter keys; pairing with parent %s accepted unverified",
			r.NewCollection, parent.Key.String())

		return
	}

	if !keys.HasParentLinks() {
		// Keys declared but not linked to parent collections: presence is
		// all we can check, and it holds.
		return
	}

	if parentCollection == "" {
		// Static-list parents reference no collection, so linked-key
		// metadata has nothing to match against.
		r.Confidence = ConfidenceWeak
		r.Reason = fmt.Sprintf("parent %s references no collection; pairing with %q accepted unverified",
			parent.Key.String(), r.NewCollection)

		return
	}

	if keys.LinksParent(parentCollection) {
		return
	}

	target := r.NewCollection

	r.Outcome = OutcomeAmbiguous
	r.NewCollection = ""
	r.Reason = fmt.Sprintf("collection %q cannot be filtered by a field of parent collection %q (declared keys: %v)",
		target, parentCollection, keys.Keys())
}
