package rdf

import (
	"regexp"
	"strings"

	"github.com/lychee-technology/ldstore"
)

type opKind int

const (
	opTriple opKind = iota
	opFilter
	opOptional
)

// op is one parsed line (or nested block) of a compiled query's WHERE
// body, per the grammar planner.go/planner_expr.go emit.
type op struct {
	kind       opKind
	subject    term
	predicate  string // "a" for the class constraint, else a bare property name
	object     term
	filterText string
	children   []op
}

var tripleLine = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\s*\.$`)

// parseBlock consumes lines[*pos:] up to (and past) the line that closes
// this block ("}"), returning the parsed ops. Top-level callers start pos
// at 0 over the lines strictly inside the outermost "WHERE {" / "}" pair.
func parseBlock(lines []string, pos *int) ([]op, error) {
	var ops []op
	for *pos < len(lines) {
		line := strings.TrimSpace(lines[*pos])
		*pos++
		if line == "" {
			continue
		}
		if line == "}" {
			return ops, nil
		}
		if strings.HasSuffix(line, "OPTIONAL {") {
			children, err := parseBlock(lines, pos)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op{kind: opOptional, children: children})
			continue
		}
		if strings.HasPrefix(line, "FILTER(") && strings.HasSuffix(line, ")") {
			ops = append(ops, op{kind: opFilter, filterText: line[len("FILTER(") : len(line)-1]})
			continue
		}
		m := tripleLine.FindStringSubmatch(line)
		if m == nil {
			return nil, ldcore.UnsupportedError("rdf: could not parse compiled query line: " + line)
		}
		subj, err := parseTerm(m[1])
		if err != nil {
			return nil, err
		}
		pred := m[2]
		predName := pred
		if pred != "a" {
			predName = strings.TrimPrefix(pred, ":")
		}
		obj, err := parseTerm(m[3])
		if err != nil {
			return nil, err
		}
		ops = append(ops, op{kind: opTriple, subject: subj, predicate: predName, object: obj})
	}
	return ops, nil
}

// splitQuery separates a planner-compiled query string into its SELECT
// clause, the lines strictly inside the outermost WHERE block (with any
// nested OPTIONAL blocks' own closing braces still included, parseBlock
// consumes those itself), and the footer lines that follow the block.
func splitQuery(query string) (selectClause string, whereLines []string, footer []string, err error) {
	lines := strings.Split(strings.TrimRight(query, "\n"), "\n")
	if len(lines) == 0 {
		return "", nil, nil, ldcore.UnsupportedError("rdf: empty query")
	}
	const suffix = " WHERE {"
	if !strings.HasSuffix(lines[0], suffix) {
		return "", nil, nil, ldcore.UnsupportedError("rdf: malformed SELECT header: " + lines[0])
	}
	selectClause = strings.TrimSuffix(lines[0], suffix)

	depth := 1
	i := 1
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if strings.HasSuffix(t, "OPTIONAL {") {
			depth++
		} else if t == "}" {
			depth--
			if depth == 0 {
				i++
				break
			}
		}
		whereLines = append(whereLines, lines[i])
	}
	footer = lines[i:]
	return selectClause, whereLines, footer, nil
}

// splitTopLevel splits s on spaces that are not nested inside a balanced
// "(...)" group, the shape the SELECT clause's items are rendered in.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				if i > start {
					out = append(out, s[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// splitOutside splits s on sep occurrences that are not nested inside a
// balanced "(...)" group, used for FILTER's "||"/"&&" combinators.
func splitOutside(s, sep string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			out = append(out, s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	out = append(out, s[start:])
	return out
}
