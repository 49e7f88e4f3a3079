package rdf

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/lychee-technology/ldstore"
)

// Select evaluates a compiled SELECT query string — either the planner's
// (planner.go Compile) or the Fetcher's UNION-of-BIND-branches shape
// (fetcher.go compileFetchQuery) — against backend. It returns result
// rows in projection order, plus the alias each column was bound to
// (nil aliases for the Fetcher shape, which Loader/Fetcher scan
// positionally by fixed column order instead).
func Select(ctx context.Context, backend Backend, query string) ([][]ldcore.Value, []string, error) {
	if strings.HasPrefix(query, "SELECT ?i ?p ?v ?r WHERE {") {
		rows, err := selectFetchUnion(ctx, backend, query)
		return rows, nil, err
	}
	return selectPlanned(ctx, backend, query)
}

// Update evaluates a compiled UPDATE query string (updater.go
// compileUpdate: an optional "DELETE WHERE {...}" block followed by an
// optional "INSERT DATA {...}" block) against backend.
func Update(ctx context.Context, backend Backend, query string) error {
	lines := strings.Split(strings.TrimRight(query, "\n"), "\n")
	i := 0
	if i < len(lines) && strings.TrimSpace(lines[i]) == "DELETE WHERE {" {
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "}" {
			if err := execDeleteLine(ctx, backend, lines[i]); err != nil {
				return err
			}
			i++
		}
		i++ // past closing "}"
	}
	if i < len(lines) && strings.TrimSpace(lines[i]) == "INSERT DATA {" {
		i++
		var rows []Row
		for i < len(lines) && strings.TrimSpace(lines[i]) != "}" {
			row, err := parseInsertLine(lines[i])
			if err != nil {
				return err
			}
			rows = append(rows, row)
			i++
		}
		if len(rows) > 0 {
			if err := backend.Insert(ctx, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- planner-compiled SELECT ------------------------------------------------

func selectPlanned(ctx context.Context, backend Backend, query string) ([][]ldcore.Value, []string, error) {
	selectClause, whereLines, footer, err := splitQuery(query)
	if err != nil {
		return nil, nil, err
	}
	pos := 0
	ops, err := parseBlock(whereLines, &pos)
	if err != nil {
		return nil, nil, err
	}
	envs, err := evalBlock(ctx, backend, ops, []binding{{}})
	if err != nil {
		return nil, nil, err
	}

	items, distinctVar, err := parseSelect(selectClause)
	if err != nil {
		return nil, nil, err
	}
	groupBy, having, order, limit, offset, err := parseFooter(footer)
	if err != nil {
		return nil, nil, err
	}

	if distinctVar != "" {
		envs = sortEnvs(envs, order)
		seen := map[string]bool{}
		var rows [][]ldcore.Value
		for _, env := range envs {
			v, ok := env[distinctVar]
			if !ok {
				continue
			}
			enc, _ := v.Encode("")
			if seen[enc] {
				continue
			}
			seen[enc] = true
			rows = append(rows, []ldcore.Value{v})
		}
		return paginate(rows, limit, offset), nil, nil
	}

	isAggregate := false
	for _, it := range items {
		if it.agg != "" {
			isAggregate = true
		}
	}

	if !isAggregate {
		envs = sortEnvs(envs, order)
		rows := make([][]ldcore.Value, 0, len(envs))
		var aliases []string
		for _, env := range envs {
			row := make([]ldcore.Value, len(items))
			for i, it := range items {
				v, err := evalPlainItem(it, env)
				if err != nil {
					return nil, nil, err
				}
				row[i] = v
			}
			rows = append(rows, row)
		}
		for _, it := range items {
			aliases = append(aliases, it.alias)
		}
		return paginate(rows, limit, offset), aliases, nil
	}

	groups := groupEnvs(envs, groupBy)
	if having != "" {
		filtered := groups[:0]
		for _, g := range groups {
			ok, err := evalHaving(g.rep, having)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	reps := make([]binding, len(groups))
	for i, g := range groups {
		reps[i] = g.rep
	}
	order2 := orderIndices(reps, order)

	rows := make([][]ldcore.Value, 0, len(groups))
	var aliases []string
	for _, idx := range order2 {
		g := groups[idx]
		row := make([]ldcore.Value, len(items))
		for i, it := range items {
			v, err := evalAggItem(it, g.envs)
			if err != nil {
				return nil, nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	for _, it := range items {
		aliases = append(aliases, it.alias)
	}
	return paginate(rows, limit, offset), aliases, nil
}

func paginate(rows [][]ldcore.Value, limit, offset int) [][]ldcore.Value {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// --- WHERE block evaluation --------------------------------------------------

func evalBlock(ctx context.Context, backend Backend, ops []op, envs []binding) ([]binding, error) {
	for _, o := range ops {
		var err error
		switch o.kind {
		case opTriple:
			envs, err = evalTriple(ctx, backend, o, envs)
		case opFilter:
			envs, err = evalFilterOp(envs, o.filterText)
		case opOptional:
			envs, err = evalOptional(ctx, backend, o.children, envs)
		}
		if err != nil {
			return nil, err
		}
		if len(envs) == 0 {
			return envs, nil
		}
	}
	return envs, nil
}

// evalTriple joins one triple pattern (or the "a <class>" constraint)
// against envs. By construction of the planner's own emission order,
// exactly one side is ever unbound on first sight; the other is always
// resolvable from env or a ground literal.
func evalTriple(ctx context.Context, backend Backend, o op, envs []binding) ([]binding, error) {
	var out []binding
	for _, env := range envs {
		subj, subjBound := o.subject.resolve(env)
		obj, objBound := o.object.resolve(env)

		if o.predicate == "a" {
			classPred := "@type"
			classObj := obj
			if !subjBound {
				// A top-level class-scoped selection (Edge == nil, §4.8):
				// root is still free here, so this triple is what binds it,
				// one row per matching subject.
				rows, err := backend.Match(ctx, nil, &classPred, &classObj)
				if err != nil {
					return nil, err
				}
				for _, r := range rows {
					next := env.clone()
					next[o.subject.name] = ldcore.NewURI(r.Subject)
					out = append(out, next)
				}
				continue
			}
			subjStr, _ := subj.AsURI()
			rows, err := backend.Match(ctx, &subjStr, &classPred, &classObj)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				out = append(out, env)
			}
			continue
		}

		switch {
		case subjBound && !objBound && o.object.isVar:
			subjStr, _ := subj.AsURI()
			rows, err := backend.Match(ctx, &subjStr, &o.predicate, nil)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				v, err := DecodeObject(r.ObjectKind, r.ObjectText, r.ObjectLanguage, r.ObjectDatatype)
				if err != nil {
					return nil, err
				}
				next := env.clone()
				next[o.object.name] = v
				out = append(out, next)
			}
		case objBound && !subjBound && o.subject.isVar:
			rows, err := backend.Match(ctx, nil, &o.predicate, &obj)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				next := env.clone()
				next[o.subject.name] = ldcore.NewURI(r.Subject)
				out = append(out, next)
			}
		case subjBound && objBound:
			subjStr, _ := subj.AsURI()
			rows, err := backend.Match(ctx, &subjStr, &o.predicate, &obj)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				out = append(out, env)
			}
		default:
			return nil, ldcore.UnsupportedError("rdf: triple pattern with both sides unbound")
		}
	}
	return out, nil
}

func evalOptional(ctx context.Context, backend Backend, children []op, envs []binding) ([]binding, error) {
	var out []binding
	for _, env := range envs {
		sub, err := evalBlock(ctx, backend, children, []binding{env})
		if err != nil {
			return nil, err
		}
		if len(sub) == 0 {
			out = append(out, env)
			continue
		}
		out = append(out, sub...)
	}
	return out, nil
}

func evalFilterOp(envs []binding, text string) ([]binding, error) {
	var out []binding
	for _, env := range envs {
		ok, err := evalFilterExpr(env, text)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, env)
		}
	}
	return out, nil
}

// --- FILTER/HAVING expression evaluation ------------------------------------

var compareRe = regexp.MustCompile(`^(\?[A-Za-z0-9_]+)\s*(=|<=|>=|<|>)\s*(.+)$`)
var regexRe = regexp.MustCompile(`^REGEX\(STR\((\?[A-Za-z0-9_]+)\),\s*(.+),\s*"i"\)$`)
var boundRe = regexp.MustCompile(`^!BOUND\((\?[A-Za-z0-9_]+)\)$`)

func evalFilterExpr(env binding, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if ors := splitOutside(text, " || "); len(ors) > 1 {
		for _, part := range ors {
			ok, err := evalFilterExpr(env, part)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	if ands := splitOutside(text, " && "); len(ands) > 1 {
		for _, part := range ands {
			ok, err := evalFilterExpr(env, part)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") && balanced(text[1:len(text)-1]) {
		return evalFilterExpr(env, text[1:len(text)-1])
	}
	if text == "false" {
		return false, nil
	}
	if text == "true" {
		return true, nil
	}
	if m := boundRe.FindStringSubmatch(text); m != nil {
		_, ok := env[strings.TrimPrefix(m[1], "?")]
		return !ok, nil
	}
	if m := regexRe.FindStringSubmatch(text); m != nil {
		v, ok := env[strings.TrimPrefix(m[1], "?")]
		if !ok {
			return false, nil
		}
		patternTerm, err := parseTerm(strings.TrimSpace(m[2]))
		if err != nil {
			return false, err
		}
		pat, _ := patternTerm.value.AsString()
		s, err := valueAsString(v)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}
	if m := compareRe.FindStringSubmatch(text); m != nil {
		v, ok := env[strings.TrimPrefix(m[1], "?")]
		if !ok {
			return false, nil
		}
		rhsTerm, err := parseTerm(strings.TrimSpace(m[3]))
		if err != nil {
			return false, err
		}
		c, ok := ldcore.Compare(v, rhsTerm.value)
		if !ok {
			return false, nil
		}
		switch m[2] {
		case "=":
			return c == 0, nil
		case "<":
			return c < 0, nil
		case ">":
			return c > 0, nil
		case "<=":
			return c <= 0, nil
		case ">=":
			return c >= 0, nil
		}
	}
	return false, ldcore.UnsupportedError("rdf: unsupported filter expression: " + text)
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func valueAsString(v ldcore.Value) (string, error) {
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	if _, s, ok := v.AsText(); ok {
		return s, nil
	}
	return v.Encode("")
}

func evalHaving(env binding, text string) (bool, error) {
	return evalFilterExpr(env, text)
}

// --- projection --------------------------------------------------------------

type projItem struct {
	bare     string
	agg      string
	distinct bool
	inner    string
	alias    string
}

// parseSelect parses the compiled SELECT clause. The no-Specs shape is
// "SELECT DISTINCT <focusVar>" (distinctVar returns that var's bare
// name); otherwise it is a space-separated list of projection items.
func parseSelect(clause string) (items []projItem, distinctVar string, err error) {
	clause = strings.TrimPrefix(clause, "SELECT ")
	if strings.HasPrefix(clause, "DISTINCT ") {
		return nil, strings.TrimPrefix(strings.TrimPrefix(clause, "DISTINCT "), "?"), nil
	}
	for _, tok := range splitTopLevel(clause) {
		item, err := parseProjItem(tok)
		if err != nil {
			return nil, "", err
		}
		items = append(items, item)
	}
	return items, "", nil
}

var aggFuncRe = regexp.MustCompile(`^(COUNT|SUM|AVG|MIN|MAX|SAMPLE)\((DISTINCT )?(.+)\)$`)

func parseProjItem(tok string) (projItem, error) {
	if strings.HasPrefix(tok, "?") {
		return projItem{bare: strings.TrimPrefix(tok, "?"), alias: strings.TrimPrefix(tok, "?")}, nil
	}
	if !strings.HasPrefix(tok, "(") || !strings.HasSuffix(tok, ")") {
		return projItem{}, ldcore.UnsupportedError("rdf: unsupported projection token: " + tok)
	}
	inner := tok[1 : len(tok)-1]
	idx := strings.LastIndex(inner, " AS ?")
	if idx < 0 {
		return projItem{}, ldcore.UnsupportedError("rdf: unsupported projection token: " + tok)
	}
	expr := inner[:idx]
	alias := inner[idx+len(" AS ?"):]
	if m := aggFuncRe.FindStringSubmatch(expr); m != nil {
		return projItem{agg: m[1], distinct: m[2] != "", inner: m[3], alias: alias}, nil
	}
	return projItem{inner: expr, alias: alias}, nil
}

// evalPlainItem evaluates a non-aggregate projection item against one
// solution env. Only a bare variable reference (optionally aliased) is
// evaluated; any other computed Spec.Expr is rejected with an
// Unsupported error rather than silently miscompiled (see DESIGN.md).
func evalPlainItem(it projItem, env binding) (ldcore.Value, error) {
	ref := it.inner
	if ref == "" {
		ref = "?" + it.bare
	}
	if strings.HasPrefix(ref, "?") {
		v, ok := env[strings.TrimPrefix(ref, "?")]
		if !ok {
			return ldcore.Nil, nil
		}
		return v, nil
	}
	return ldcore.Nil, ldcore.UnsupportedError("rdf: cannot evaluate computed expression outside a bare variable: " + ref)
}

func evalAggItem(it projItem, envs []binding) (ldcore.Value, error) {
	varName := strings.TrimPrefix(it.inner, "?")
	var vals []ldcore.Value
	for _, env := range envs {
		if v, ok := env[varName]; ok {
			vals = append(vals, v)
		}
	}
	switch it.agg {
	case "COUNT":
		if it.distinct {
			seen := map[string]bool{}
			for _, v := range vals {
				enc, _ := v.Encode("")
				seen[enc] = true
			}
			return ldcore.NewIntegral(int64(len(seen))), nil
		}
		return ldcore.NewIntegral(int64(len(vals))), nil
	case "SUM":
		return sumDecimals(vals)
	case "AVG":
		return avgDecimals(vals)
	case "MIN", "MAX":
		return minMax(vals, it.agg == "MAX")
	case "SAMPLE":
		if len(vals) == 0 {
			return ldcore.Nil, nil
		}
		return vals[0], nil
	default:
		return ldcore.Nil, ldcore.UnsupportedError("rdf: unknown aggregate: " + it.agg)
	}
}

func toDecimalValue(v ldcore.Value) (apd.Decimal, error) {
	if i, ok := v.AsIntegral(); ok {
		return *apd.New(i, 0), nil
	}
	if f, ok := v.AsFloating(); ok {
		var d apd.Decimal
		if _, err := d.SetFloat64(f); err != nil {
			return apd.Decimal{}, err
		}
		return d, nil
	}
	if bi, ok := v.AsInteger(); ok {
		var d apd.Decimal
		d.SetBigMantScale(bi, 0)
		return d, nil
	}
	if d, ok := v.AsDecimal(); ok {
		return d, nil
	}
	return apd.Decimal{}, ldcore.UnsupportedError("rdf: not a numeric value in aggregate")
}

var decCtx = apd.BaseContext.WithPrecision(100)

func sumDecimals(vals []ldcore.Value) (ldcore.Value, error) {
	sum := apd.Decimal{}
	for _, v := range vals {
		d, err := toDecimalValue(v)
		if err != nil {
			return ldcore.Nil, err
		}
		if _, err := decCtx.Add(&sum, &sum, &d); err != nil {
			return ldcore.Nil, err
		}
	}
	return ldcore.NewDecimal(sum), nil
}

func avgDecimals(vals []ldcore.Value) (ldcore.Value, error) {
	if len(vals) == 0 {
		return ldcore.Nil, nil
	}
	sumV, err := sumDecimals(vals)
	if err != nil {
		return ldcore.Nil, err
	}
	sum, _ := sumV.AsDecimal()
	n := *apd.New(int64(len(vals)), 0)
	var avg apd.Decimal
	if _, err := decCtx.Quo(&avg, &sum, &n); err != nil {
		return ldcore.Nil, err
	}
	return ldcore.NewDecimal(avg), nil
}

func minMax(vals []ldcore.Value, max bool) (ldcore.Value, error) {
	if len(vals) == 0 {
		return ldcore.Nil, nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		c, ok := ldcore.Compare(v, best)
		if !ok {
			continue
		}
		if (max && c > 0) || (!max && c < 0) {
			best = v
		}
	}
	return best, nil
}

// --- grouping & ordering -----------------------------------------------------

type envGroup struct {
	rep  binding
	envs []binding
}

func groupEnvs(envs []binding, groupBy []string) []envGroup {
	if len(groupBy) == 0 {
		rep := binding{}
		if len(envs) > 0 {
			rep = envs[0]
		}
		return []envGroup{{rep: rep, envs: envs}}
	}
	idx := map[string]int{}
	var groups []envGroup
	for _, env := range envs {
		key := groupKey(env, groupBy)
		if i, ok := idx[key]; ok {
			groups[i].envs = append(groups[i].envs, env)
			continue
		}
		idx[key] = len(groups)
		groups = append(groups, envGroup{rep: env, envs: []binding{env}})
	}
	return groups
}

func groupKey(env binding, groupBy []string) string {
	parts := make([]string, len(groupBy))
	for i, gv := range groupBy {
		name := strings.TrimPrefix(gv, "?")
		if v, ok := env[name]; ok {
			enc, _ := v.Encode("")
			parts[i] = enc
		} else {
			parts[i] = "\x00"
		}
	}
	return strings.Join(parts, "\x1f")
}

type orderKey struct {
	variable string
	desc     bool
}

func parseFooter(footer []string) (groupBy []string, having string, order []orderKey, limit, offset int, err error) {
	for _, raw := range footer {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "GROUP BY "):
			groupBy = splitTopLevel(strings.TrimPrefix(line, "GROUP BY "))
		case strings.HasPrefix(line, "HAVING("):
			having = strings.TrimSuffix(strings.TrimPrefix(line, "HAVING("), ")")
		case strings.HasPrefix(line, "ORDER BY "):
			order = parseOrder(strings.TrimPrefix(line, "ORDER BY "))
		case strings.HasPrefix(line, "LIMIT "):
			limit, _ = strconv.Atoi(strings.TrimPrefix(line, "LIMIT "))
		case strings.HasPrefix(line, "OFFSET "):
			offset, _ = strconv.Atoi(strings.TrimPrefix(line, "OFFSET "))
		}
	}
	return groupBy, having, order, limit, offset, nil
}

func parseOrder(s string) []orderKey {
	var out []orderKey
	for _, tok := range splitTopLevel(s) {
		desc := strings.HasPrefix(tok, "DESC(")
		inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(tok, "ASC("), "DESC("), ")")
		out = append(out, orderKey{variable: inner, desc: desc})
	}
	return out
}

func varLookup(env binding, ref string) (ldcore.Value, bool) {
	v, ok := env[strings.TrimPrefix(ref, "?")]
	return v, ok
}

func lessByOrder(a, b binding, order []orderKey) bool {
	for _, o := range order {
		av, aok := varLookup(a, o.variable)
		bv, bok := varLookup(b, o.variable)
		if !aok || !bok {
			continue
		}
		c, ok := ldcore.Compare(av, bv)
		if !ok || c == 0 {
			continue
		}
		if o.desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func sortEnvs(envs []binding, order []orderKey) []binding {
	out := make([]binding, len(envs))
	copy(out, envs)
	sort.SliceStable(out, func(i, j int) bool { return lessByOrder(out[i], out[j], order) })
	return out
}

func orderIndices(reps []binding, order []orderKey) []int {
	idx := make([]int, len(reps))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return lessByOrder(reps[idx[i]], reps[idx[j]], order) })
	return idx
}
