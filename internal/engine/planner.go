package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lychee-technology/ldstore"
)

// PropertyEdge anchors a query to a single resource through one of its
// properties: `anchor propertyRef ?root` (or reversed). Selector tasks
// that read a relation (e.g. "this person's orders") compile through a
// PropertyEdge; Retriever/Writer top-level queries over a class leave it
// nil and bind ?root directly (or leave it free, for a virtual query).
type PropertyEdge struct {
	Anchor  ldcore.Value // a URI value
	Name    string
	Reverse bool
}

// Plan is the planner's output: the compiled SPARQL-like query string and
// the aliases its Specs bound, in projection order (empty when the query
// has no Specs, in which case each result row is a single value bound to
// ?root).
type Plan struct {
	Query   string
	Aliases []string
}

// Compile compiles one (virtual, id, property, query) tuple into a single
// SPARQL-like query string, per §4.6. For a virtual shape (with no edge)
// the id is not bound: no FILTER on ?root is emitted. The class
// constraint is emitted whenever q.Class is set, virtual or not.
// defaultLimit is applied when q.Limit is unspecified.
func Compile(vscope *VariableScope, flake *ldcore.Shape, virtual bool, id ldcore.Value, edge *PropertyEdge, q ldcore.Query, defaultLimit int) (Plan, error) {
	var where strings.Builder

	root := Root
	if edge != nil {
		anchorLit, err := compileLiteral(edge.Anchor)
		if err != nil {
			return Plan{}, err
		}
		bound := bindProperty(&where, vscope, anchorLit, edge.Name, edge.Reverse)
		root = bound
	} else if !virtual && !id.IsNil() {
		lit, err := compileLiteral(id)
		if err != nil {
			return Plan{}, err
		}
		fmt.Fprintf(&where, "  FILTER(%s = %s)\n", root, lit)
	}

	if q.Class != "" {
		fmt.Fprintf(&where, "  %s a <%s> .\n", root, q.Class)
	}

	var flakeTree *Flake
	if flake != nil {
		flakeTree = Build(flake)
	}
	if flakeTree != nil {
		if err := emitFlake(&where, vscope, root, flakeTree, q.Filters); err != nil {
			return Plan{}, err
		}
	} else if err := emitFlatFilters(&where, vscope, root, q.Filters); err != nil {
		return Plan{}, err
	}

	for _, probe := range q.Probes {
		head, ok := probe.Path.Head()
		if !ok {
			continue
		}
		v := vscope.VarFor(root + "." + head)
		fmt.Fprintf(&where, "  OPTIONAL { %s %s %s . }\n", root, predicateRef(head), v)
	}

	mixedAggregate := q.IsAggregate() && hasNonAggregateSpec(q.Specs)

	selectClause, aliases := compileProjection(vscope, root, q, mixedAggregate)

	var b strings.Builder
	b.WriteString(selectClause)
	b.WriteString(" WHERE {\n")
	b.WriteString(where.String())
	b.WriteString("}\n")

	if q.IsAggregate() {
		if group := compileGroupBy(vscope, root, q); group != "" {
			b.WriteString(group)
			b.WriteByte('\n')
		}
		if having, err := compileHaving(vscope, root, q.Having); err != nil {
			return Plan{}, err
		} else if having != "" {
			b.WriteString(having)
			b.WriteByte('\n')
		}
	}

	if order := compileOrder(vscope, root, q); order != "" {
		b.WriteString(order)
		b.WriteByte('\n')
	}

	limit := q.EffectiveLimit(defaultLimit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	fmt.Fprintf(&b, "LIMIT %d\nOFFSET %d\n", limit, offset)

	return Plan{Query: b.String(), Aliases: aliases}, nil
}

func hasNonAggregateSpec(specs []ldcore.Spec) bool {
	for _, s := range specs {
		if !s.IsAggregate() {
			return true
		}
	}
	return false
}

func compileProjection(vscope *VariableScope, root string, q ldcore.Query, mixedAggregate bool) (string, []string) {
	if len(q.Specs) == 0 {
		return "SELECT DISTINCT " + root, nil
	}
	parts := make([]string, 0, len(q.Specs))
	aliases := make([]string, 0, len(q.Specs))
	for _, s := range q.Specs {
		expr, alias := compileSpec(vscope, root, s, mixedAggregate && !s.IsAggregate())
		parts = append(parts, expr)
		aliases = append(aliases, alias)
	}
	return "SELECT " + strings.Join(parts, " "), aliases
}

func compileGroupBy(vscope *VariableScope, root string, q ldcore.Query) string {
	var cols []string
	for _, s := range q.Specs {
		if s.IsAggregate() {
			continue
		}
		head, ok := s.Path.Head()
		if !ok || s.Path.Empty() {
			continue
		}
		cols = append(cols, vscope.VarFor(root+"."+head))
	}
	for _, p := range q.GroupBy {
		head, ok := p.Head()
		if !ok {
			continue
		}
		cols = append(cols, vscope.VarFor(root+"."+head))
	}
	if len(cols) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(cols, " ")
}

func compileHaving(vscope *VariableScope, root string, having []ldcore.Filter) (string, error) {
	if len(having) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(having))
	for _, f := range having {
		head, _ := f.Path.Head()
		v := vscope.VarFor(root + "." + head)
		expr, err := compileCriterion(v, f.Criterion)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}
	return "HAVING(" + strings.Join(parts, " && ") + ")", nil
}

// compileOrder concatenates, in priority order: focus pulls (step 1, §4.6
// "Order") sort DESC on a boolean membership test over root, lowest
// Priority first, ahead of every explicit criterion; explicit criteria
// (step 2) order in OrderBy's own declaration order (ASC/DESC per Desc);
// and a default ASC on root is appended when no explicit ordering touches
// it.
func compileOrder(vscope *VariableScope, root string, q ldcore.Query) string {
	if len(q.OrderBy) == 0 {
		return "ORDER BY ASC(" + root + ")"
	}

	var focusTerms, explicitTerms []ldcore.Order
	for _, o := range q.OrderBy {
		if o.Focus != nil {
			focusTerms = append(focusTerms, o)
		} else {
			explicitTerms = append(explicitTerms, o)
		}
	}
	sort.SliceStable(focusTerms, func(i, j int) bool { return focusTerms[i].Priority < focusTerms[j].Priority })

	parts := make([]string, 0, len(focusTerms)+len(explicitTerms)+1)
	for _, o := range focusTerms {
		parts = append(parts, "DESC("+compileFocusExpr(root, *o.Focus)+")")
	}

	touchesRoot := false
	for _, o := range explicitTerms {
		var v string
		if o.Path.Empty() {
			v = root
			touchesRoot = true
		} else {
			head, _ := o.Path.Head()
			v = vscope.VarFor(root + "." + head)
		}
		if o.Desc {
			parts = append(parts, "DESC("+v+")")
		} else {
			parts = append(parts, "ASC("+v+")")
		}
	}
	if !touchesRoot {
		parts = append(parts, "ASC("+root+")")
	}
	return "ORDER BY " + strings.Join(parts, " ")
}

// compileFocusExpr renders a FocusSet as a boolean expression over root,
// true exactly for resources named in set.IDs. An empty set never pulls
// anything to the front.
func compileFocusExpr(root string, set ldcore.FocusSet) string {
	if len(set.IDs) == 0 {
		return "false"
	}
	parts := make([]string, 0, len(set.IDs))
	for _, id := range set.IDs {
		parts = append(parts, root+" = <"+id+">")
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

// emitFlake recursively emits the Flake tree's property edges, wrapping a
// child's whole subtree in OPTIONAL when that child is not Required, and
// attaching each node's local filters (and their FILTER clauses) at the
// block they belong to.
func emitFlake(b *strings.Builder, vscope *VariableScope, root string, f *Flake, filters []ldcore.Filter) error {
	local, nested, _ := f.Partition(filters)

	for name, child := range f.Children {
		var block strings.Builder
		v := bindProperty(&block, vscope, root, name, false)
		if err := emitFlake(&block, vscope, v, child, nested[name]); err != nil {
			return err
		}
		if child.Required {
			b.WriteString(block.String())
		} else {
			fmt.Fprintf(b, "  OPTIONAL {\n%s  }\n", block.String())
		}
	}

	for _, filter := range local {
		head, ok := filter.Path.Head()
		if !ok {
			continue
		}
		v := vscope.VarFor(root + "." + head)
		if _, isChild := f.Children[head]; !isChild {
			bindProperty(b, vscope, root, head, false)
		}
		expr, err := compileCriterion(v, filter.Criterion)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  FILTER(%s)\n", expr)
	}
	return nil
}

// emitFlatFilters is the fallback used when no Shape/Flake is available
// (a virtual or schema-less query): every filter's leading segment is
// bound directly off root with no OPTIONAL classification.
func emitFlatFilters(b *strings.Builder, vscope *VariableScope, root string, filters []ldcore.Filter) error {
	for _, filter := range filters {
		head, ok := filter.Path.Head()
		if !ok {
			continue
		}
		v := bindProperty(b, vscope, root, head, false)
		expr, err := compileCriterion(v, filter.Criterion)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  FILTER(%s)\n", expr)
	}
	return nil
}
