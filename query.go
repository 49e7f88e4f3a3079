package ldcore

// Operator is a Criterion's comparison kind, compiled to a SPARQL FILTER
// (or HAVING) expression by the Query planner.
type Operator int

const (
	OpEq Operator = iota
	OpLT
	OpGT
	OpLTE
	OpGTE
	OpLike
	// OpAny tests set membership: Operand must be an Array, and the
	// Criterion matches when the bound value equals any element. An
	// empty Array never matches (§5 "Nil-means-absence").
	OpAny
)

// Criterion is one filter test: compare the value bound at a Path against
// Operand using Op. A Nil Operand means "the property is absent" — the
// planner compiles this to a NOT EXISTS / FILTER(!BOUND(...)) rather than
// an equality test against an empty literal.
type Criterion struct {
	Op      Operator
	Operand Value
}

// AbsenceCriterion builds the "property is absent" filter.
func AbsenceCriterion() Criterion { return Criterion{Op: OpEq, Operand: Nil} }

// Filter pairs a property Path with the Criterion it must satisfy. The
// Flake builder partitions a Query's Filters by each Path's leading
// segment to decide which nest inside an OPTIONAL block.
type Filter struct {
	Path      Path
	Criterion Criterion
}

// AggregateFunc names a SPARQL-style aggregate a Spec may apply to its
// Path before projection.
type AggregateFunc int

const (
	AggNone AggregateFunc = iota
	AggCount
	AggSum
	AggAvg
	AggMin
	AggMax
	AggSample
)

func (f AggregateFunc) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggSample:
		return "SAMPLE"
	default:
		return ""
	}
}

// Spec is one projected output column: the Path read, the alias it is
// bound to, and an optional aggregate applied over the GROUP BY the Query
// implies. A Spec with no Aggregate and no Expr is a plain projected
// property; a Spec with Expr set projects a planner-computed expression
// (e.g. a literal or a coalesce) instead of a stored property.
type Spec struct {
	Path      Path
	Alias     string
	Aggregate AggregateFunc
	Expr      string // opaque planner-level expression; "" for a plain property Spec
}

// IsAggregate reports whether s projects through an aggregate function,
// which forces the Query into a GROUP BY over every non-aggregate Spec.
func (s Spec) IsAggregate() bool { return s.Aggregate != AggNone }

// IsComputed reports whether s projects a planner expression rather than
// a stored property path.
func (s Spec) IsComputed() bool { return s.Expr != "" }

// Order is one ORDER BY term: either an explicit ascending/descending
// sort on Path, or, when Focus is set, a synthetic pull-to-front term
// (§4.6 Order step 1) that sorts DESC on a boolean predicate true for
// resources in the focus set — Path is ignored in that case.
type Order struct {
	Path Path
	Desc bool

	// Focus, when non-nil, replaces Path/Desc: this term pulls every
	// resource for which Focus reports true to the front of the result,
	// ahead of every other Order term (§3 "focus").
	Focus *FocusSet

	// Priority is a signed rank among multiple Focus terms: lower values
	// sort earlier. Ties among equal-priority Focus terms, and every
	// Order with Focus == nil, keep their relative declaration order.
	Priority int
}

// FocusSet names the resources an Order's pull-to-front term favors, by
// absolute resource URI.
type FocusSet struct {
	IDs []string
}

// PathOrder builds an explicit ascending/descending Order term over path.
func PathOrder(path Path, desc bool) Order {
	return Order{Path: path, Desc: desc}
}

// FocusOrder builds a pull-to-front Order term: resources in set sort
// ahead of every resource not in it, at the given priority.
func FocusOrder(set FocusSet, priority int) Order {
	return Order{Focus: &set, Priority: priority}
}

// Probe is a standalone existence check: "does this property have a
// bound value", used for OPTIONAL projection without also filtering rows
// out, as distinct from a Filter's AbsenceCriterion which does filter.
type Probe struct {
	Path Path
}

// Query is the planner input's declarative half: what to project, filter,
// group, order, and page. The Query planner (internal/engine) combines a
// Query with a virtual/id/property scope to compile one SPARQL-like
// string (§5).
type Query struct {
	// Class, if non-empty, constrains the query to resources of this
	// absolute class URI (a membership triple / rdf:type constraint).
	Class string

	Specs   []Spec
	Filters []Filter
	Probes  []Probe

	GroupBy []Path
	Having  []Filter

	OrderBy []Order

	// Limit < 0 means "unspecified"; the planner applies its configured
	// default. Offset < 0 means 0.
	Limit  int
	Offset int
}

// NewQuery returns a Query with no constraints, an unspecified Limit, and
// a zero Offset — the widest-open query, equivalent to "select everything
// in the default order with the default page size".
func NewQuery() Query {
	return Query{Limit: -1, Offset: 0}
}

// IsAggregate reports whether any Spec in q applies an aggregate, which
// determines whether the planner must group and whether Having applies.
func (q Query) IsAggregate() bool {
	for _, s := range q.Specs {
		if s.IsAggregate() {
			return true
		}
	}
	return false
}

// EffectiveLimit returns q.Limit, or def when q.Limit is unspecified.
func (q Query) EffectiveLimit(def int) int {
	if q.Limit < 0 {
		return def
	}
	return q.Limit
}
