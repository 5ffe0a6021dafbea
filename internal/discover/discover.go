package discover

import (
	"fmt"
	"sort"

	"mdm-migrate/internal/bundle"
)

// Discover builds the binding graph of a bundle.
//
// It never fails: structural problems become findings on the graph and the
// affected edges are excluded, so bindings untouched by a problem can still
// be resolved and rewritten.
func Discover(b *bundle.Bundle) *Graph {
	g := &Graph{
		ByField: make(map[FieldKey]NodeID),
	}

	// Pass 1: one node per selectable field, classified by source kind.
	for _, form := range b.Forms {
		for _, field := range form.Fields {
			if field.Source == nil {
				continue
			}

			node := Node{
				ID:     NodeID(len(g.Nodes)),
				Key:    FieldKey{FormID: form.ID, FieldID: field.ID},
				Parent: NoParent,
			}

			switch field.Source.Kind {
			case bundle.SourceStaticList:
				node.Kind = BindingStatic

			case bundle.SourceCollection:
				node.Kind = BindingRoot
				node.CollectionID = field.Source.CollectionID

			case bundle.SourceCascade:
				node.Kind = BindingCascade
				node.CollectionID = field.Source.CollectionID
				node.FilterKey = field.Source.FilterKey

			default:
				// Loader rejects unknown source kinds; an unloaded bundle
				// built in code could still carry one.
				g.Findings.AddError("unknown_source_kind",
					fmt.Sprintf("option source kind %q is not recognized", field.Source.Kind),
					form.ID, field.ID)

				continue
			}

			g.ByField[node.Key] = node.ID
			g.Nodes = append(g.Nodes, node)
		}
	}

	// Pass 2: cascade parent edges.
	for _, form := range b.Forms {
		for _, field := range form.Fields {
			if field.Source == nil || field.Source.Kind != bundle.SourceCascade {
				continue
			}

			g.linkParent(b, form.ID, field)
		}
	}

	g.cutCycles()
	g.buildChildren()

	return g
}

// linkParent resolves one cascade field's declared parent to a graph node
// and adds the directed edge, or records a finding and leaves the binding
// parentless.
func (g *Graph) linkParent(b *bundle.Bundle, formID string, field bundle.Field) {
	childID := g.ByField[FieldKey{FormID: formID, FieldID: field.ID}]
	ref := field.Source.Parent

	parentForm := formID
	if ref.Form != "" {
		parentForm = ref.Form
	}

	parentField := b.FindField(parentForm, ref.Field)
	if parentField == nil {
		g.Findings.AddError("dangling_cascade_parent",
			fmt.Sprintf("cascade parent %q does not exist", ref.String()),
			formID, field.ID)

		return
	}

	// A parent without an option source cannot drive a cascade; the edge
	// would dangle off an inert field. Reported, never silently dropped.
	if parentField.Source == nil {
		g.Findings.AddError("dangling_cascade_parent",
			fmt.Sprintf("cascade parent %q carries no option source", ref.String()),
			formID, field.ID)

		return
	}

	parentID, ok := g.ByField[FieldKey{FormID: parentForm, FieldID: ref.Field}]
	if !ok {
		g.Findings.AddError("dangling_cascade_parent",
			fmt.Sprintf("cascade parent %q is not a selectable field", ref.String()),
			formID, field.ID)

		return
	}

	g.Nodes[childID].Parent = parentID
}

// cutCycles detects cascade loops by walking parent chains and excludes the
// implicated edges. Each node has at most one parent, so every cycle is a
// simple loop; nodes hanging off a cut loop keep their edges and terminate
// normally afterwards.
func (g *Graph) cutCycles() {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make([]int, len(g.Nodes))

	for i := range g.Nodes {
		if state[i] != unvisited {
			continue
		}

		// Walk the parent chain from i.
		var chain []NodeID

		cur := NodeID(i)
		for cur != NoParent && state[cur] == unvisited {
			state[cur] = inProgress
			chain = append(chain, cur)
			cur = g.Nodes[cur].Parent
		}

		if cur != NoParent && state[cur] == inProgress {
			// Loop found: cut every edge on it.
			for loop := cur; ; {
				next := g.Nodes[loop].Parent
				g.Findings.AddError("cascade_cycle",
					fmt.Sprintf("cascade loop through %s", g.Nodes[loop].Key.String()),
					g.Nodes[loop].Key.FormID, g.Nodes[loop].Key.FieldID)
				g.Nodes[loop].Parent = NoParent

				loop = next
				if loop == cur {
					break
				}
			}
		}

		for _, id := range chain {
			state[id] = done
		}
	}
}

// buildChildren derives the sorted child lists from the final parent edges.
func (g *Graph) buildChildren() {
	g.Children = make([][]NodeID, len(g.Nodes))

	for i := range g.Nodes {
		p := g.Nodes[i].Parent
		if p == NoParent {
			continue
		}

		g.Children[p] = append(g.Children[p], NodeID(i))
	}

	for i := range g.Children {
		sort.Slice(g.Children[i], func(a, b int) bool {
			return g.Children[i][a] < g.Children[i][b]
		})
	}
}
