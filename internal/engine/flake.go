package engine

import "github.com/lychee-technology/ldstore"

// Flake is the shape-isomorphic tree the planner walks to emit property
// edges (§4.5/§4.6 "Flake emission"): one node per Shape, with a child
// node for every TypeShape property the Shape declares. A node whose
// owning Property has Cardinality.Min == 0 is optional — the planner
// wraps its whole subtree (the property edge plus everything nested
// under it) in a SPARQL OPTIONAL block; a required node's edges are
// emitted directly into the surrounding block.
type Flake struct {
	Shape    *ldcore.Shape
	Property string // the Property name this node is reached through; "" at the root
	Required bool   // false => the planner wraps this node's subtree in OPTIONAL
	Children map[string]*Flake
}

// Build constructs the Flake tree for shape. Every TypeShape property
// (embedded or foreign) gets a child node; literal and any-typed
// properties are leaves emitted directly by the planner without a nested
// Flake, since they carry no further structure to recurse into.
func Build(shape *ldcore.Shape) *Flake {
	return build(shape, "", true)
}

func build(shape *ldcore.Shape, property string, required bool) *Flake {
	f := &Flake{Shape: shape, Property: property, Required: required, Children: map[string]*Flake{}}
	for _, p := range shape.Properties() {
		if p.Type.Kind() != ldcore.TypeShape {
			continue
		}
		nested := p.Type.Shape()
		if nested == nil {
			continue
		}
		f.Children[p.Name] = build(nested, p.Name, p.Cardinality.Required())
	}
	return f
}

// Partition splits filters into those that terminate at this node (local
// — any one-segment path, or a path starting with a wildcard) from those
// that reach further down, grouped by the child they descend into and
// rewritten to the path each child should see (their own leading segment
// peeled off). A multi-segment filter whose leading segment names a
// property this node has no child for (e.g. it targets a sibling's
// property at the wrong nesting level) is dropped from the nested group
// and returned in skipped; the planner ignores skipped filters.
func (f *Flake) Partition(filters []ldcore.Filter) (local []ldcore.Filter, nested map[string][]ldcore.Filter, skipped []ldcore.Filter) {
	nested = make(map[string][]ldcore.Filter)
	for _, filter := range filters {
		head, ok := filter.Path.Head()
		if !ok {
			// A bare wildcard at this level has nothing more specific to
			// attach to; treat it as local.
			local = append(local, filter)
			continue
		}
		tail := filter.Path.Tail()
		if tail.Empty() {
			local = append(local, filter)
			continue
		}
		if _, hasChild := f.Children[head]; !hasChild {
			skipped = append(skipped, filter)
			continue
		}
		nested[head] = append(nested[head], ldcore.Filter{Path: tail, Criterion: filter.Criterion})
	}
	return local, nested, skipped
}
