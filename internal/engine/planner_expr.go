package engine

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/ldstore"
)

// predicateRef renders a property name as the predicate IRI the
// persistence layout (§6 "Persistence layout") uses for it. Properties
// are registered under a single default vocabulary in this engine, the
// same simplification the teacher's own query optimizer makes for
// generated column names.
func predicateRef(name string) string {
	return ":" + name
}

// bindProperty emits `root predicateRef(name) v .` and returns v. Multi-hop
// paths are bound one segment at a time by the Flake-driven recursion in
// planner.go, which is where the shape needed to know each hop's
// reverse/embedded-ness actually lives.

func bindProperty(b *strings.Builder, vscope *VariableScope, root, name string, reverse bool) string {
	v := vscope.VarFor(root + "." + name)
	if reverse {
		fmt.Fprintf(b, "  %s %s %s .\n", v, predicateRef(name), root)
	} else {
		fmt.Fprintf(b, "  %s %s %s .\n", root, predicateRef(name), v)
	}
	return v
}

// compileLiteral renders a literal Value as a SPARQL term.
func compileLiteral(v ldcore.Value) (string, error) {
	switch v.Case() {
	case ldcore.CaseURI:
		u, _ := v.AsURI()
		return "<" + u + ">", nil
	case ldcore.CaseString:
		s, _ := v.AsString()
		return quoteLiteral(s), nil
	case ldcore.CaseBit:
		b, _ := v.AsBit()
		if b {
			return "true", nil
		}
		return "false", nil
	case ldcore.CaseIntegral:
		i, _ := v.AsIntegral()
		return fmt.Sprintf("%d", i), nil
	default:
		enc, err := v.Encode("")
		if err != nil {
			return "", err
		}
		return quoteLiteral(enc), nil
	}
}

func quoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// compileCriterion compiles one Filter's Criterion against the bound
// variable v into a FILTER expression body (without the surrounding
// "FILTER(...)").
func compileCriterion(v string, c ldcore.Criterion) (string, error) {
	if c.Operand.IsNil() && c.Op != ldcore.OpAny {
		// Nil-means-absence: "the property is not bound" rather than an
		// equality test against an empty literal.
		return "!BOUND(" + v + ")", nil
	}
	switch c.Op {
	case ldcore.OpEq:
		lit, err := compileLiteral(c.Operand)
		if err != nil {
			return "", err
		}
		return v + " = " + lit, nil
	case ldcore.OpLT, ldcore.OpGT, ldcore.OpLTE, ldcore.OpGTE:
		lit, err := compileLiteral(c.Operand)
		if err != nil {
			return "", err
		}
		return v + " " + operatorSymbol(c.Op) + " " + lit, nil
	case ldcore.OpLike:
		s, ok := c.Operand.AsString()
		if !ok {
			s, _, ok = c.Operand.AsText()
		}
		if !ok {
			return "", ldcore.UnsupportedError("like criterion requires a String or Text operand")
		}
		return fmt.Sprintf("REGEX(STR(%s), %s, \"i\")", v, quoteLiteral(s)), nil
	case ldcore.OpAny:
		items, ok := c.Operand.AsArray()
		if !ok {
			return "", ldcore.UnsupportedError("any criterion requires an Array operand")
		}
		if len(items) == 0 {
			return "false", nil
		}
		var hasNil bool
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.IsNil() {
				hasNil = true
				continue
			}
			lit, err := compileLiteral(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, v+" = "+lit)
		}
		expr := strings.Join(parts, " || ")
		if hasNil {
			absence := "!BOUND(" + v + ")"
			if expr == "" {
				return absence, nil
			}
			return "(" + expr + ") || " + absence, nil
		}
		return expr, nil
	default:
		return "", ldcore.UnsupportedError("unknown criterion operator")
	}
}

func operatorSymbol(op ldcore.Operator) string {
	switch op {
	case ldcore.OpLT:
		return "<"
	case ldcore.OpGT:
		return ">"
	case ldcore.OpLTE:
		return "<="
	case ldcore.OpGTE:
		return ">="
	default:
		return "="
	}
}

// compileSpec renders one projected column's expression, applying its
// aggregate when present. sampleNonAggregates wraps a plain (non-aggregate)
// expression in SAMPLE(...), required when the query mixes aggregate and
// non-aggregate columns (§4.6 "Projection").
func compileSpec(vscope *VariableScope, root string, s ldcore.Spec, sampleNonAggregates bool) (expr string, alias string) {
	alias = s.Alias
	if alias == "" {
		alias = s.Path.String()
	}
	var inner string
	switch {
	case s.IsComputed():
		inner = s.Expr
	case s.Path.Empty():
		inner = root
	default:
		head, _ := s.Path.Head()
		inner = vscope.VarFor(root + "." + head)
	}
	switch s.Aggregate {
	case ldcore.AggCount:
		return fmt.Sprintf("(COUNT(DISTINCT %s) AS ?%s)", inner, alias), alias
	case ldcore.AggSum:
		return fmt.Sprintf("(SUM(%s) AS ?%s)", inner, alias), alias
	case ldcore.AggAvg:
		return fmt.Sprintf("(AVG(%s) AS ?%s)", inner, alias), alias
	case ldcore.AggMin:
		return fmt.Sprintf("(MIN(%s) AS ?%s)", inner, alias), alias
	case ldcore.AggMax:
		return fmt.Sprintf("(MAX(%s) AS ?%s)", inner, alias), alias
	case ldcore.AggSample:
		return fmt.Sprintf("(SAMPLE(%s) AS ?%s)", inner, alias), alias
	default:
		if sampleNonAggregates {
			return fmt.Sprintf("(SAMPLE(%s) AS ?%s)", inner, alias), alias
		}
		if inner == root {
			return inner, alias
		}
		return fmt.Sprintf("(%s AS ?%s)", inner, alias), alias
	}
}
