package rdf

import (
	"strconv"
	"strings"

	"github.com/lychee-technology/ldstore"
)

// binding maps a compiled query's variable names (without the leading
// "?") to the Value they resolved to within one solution.
type binding map[string]ldcore.Value

func (b binding) clone() binding {
	out := make(binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// term is one side of a compiled triple pattern: either a variable
// reference or a ground literal/URI.
type term struct {
	isVar bool
	name  string
	value ldcore.Value
}

func parseTerm(tok string) (term, error) {
	switch {
	case strings.HasPrefix(tok, "?"):
		return term{isVar: true, name: strings.TrimPrefix(tok, "?")}, nil
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return term{value: ldcore.NewURI(tok[1 : len(tok)-1])}, nil
	default:
		v, err := parseLiteralToken(tok)
		if err != nil {
			return term{}, err
		}
		return term{value: v}, nil
	}
}

// resolve returns t's concrete value given the current binding, reporting
// false if t is a variable not yet bound.
func (t term) resolve(env binding) (ldcore.Value, bool) {
	if !t.isVar {
		return t.value, true
	}
	v, ok := env[t.name]
	return v, ok
}

// parseLiteralToken decodes one FILTER/triple-object literal token as
// rendered by planner_expr.go's compileLiteral/quoteLiteral. The encoding
// is lossy for anything beyond URI/Bit/Integral/String (compileLiteral's
// default branch quotes the canonical Encode() text for every other
// case), so this best-effort reconstruction tries, in order, a plain
// number, an ISO-8601 temporal/duration, then falls back to String —
// sufficient for the criteria this module's own planner ever emits.
func parseLiteralToken(tok string) (ldcore.Value, error) {
	switch tok {
	case "true":
		return ldcore.NewBit(true), nil
	case "false":
		return ldcore.NewBit(false), nil
	}
	if !strings.HasPrefix(tok, `"`) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return ldcore.NewIntegral(i), nil
		}
		return ldcore.Number(tok)
	}
	unquoted := unquoteLiteral(tok)
	if n, err := ldcore.Number(unquoted); err == nil {
		return n, nil
	}
	if t, err := ldcore.DecodeTemporal(unquoted); err == nil {
		return t, nil
	}
	if d, err := ldcore.DecodeTemporalAmount(unquoted); err == nil {
		return d, nil
	}
	return ldcore.NewString(unquoted), nil
}

func unquoteLiteral(tok string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, `"`), `"`)
	r := strings.NewReplacer(`\"`, `"`, `\\`, `\`)
	return r.Replace(inner)
}
