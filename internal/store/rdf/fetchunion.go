package rdf

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/lychee-technology/ldstore"
)

// fetchBranch patterns per fetcher.go's compileFetchQuery: an existence
// check binds through ?p2 (no predicate token in the pattern), an edge
// read binds through the named :predicate.
var fetchExistenceFwd = regexp.MustCompile(`^\{ BIND\((\d+) AS \?i\) BIND\("" AS \?p\) BIND\((true|false) AS \?r\) <([^>]+)> \?p2 \?v \. \}$`)
var fetchExistenceRev = regexp.MustCompile(`^\{ BIND\((\d+) AS \?i\) BIND\("" AS \?p\) BIND\((true|false) AS \?r\) \?v \?p2 <([^>]+)> \. \}$`)
var fetchEdgeFwd = regexp.MustCompile(`^\{ BIND\((\d+) AS \?i\) BIND\("([^"]*)" AS \?p\) BIND\((true|false) AS \?r\) <([^>]+)> :([A-Za-z0-9_]+) \?v \. \}$`)
var fetchEdgeRev = regexp.MustCompile(`^\{ BIND\((\d+) AS \?i\) BIND\("([^"]*)" AS \?p\) BIND\((true|false) AS \?r\) \?v :([A-Za-z0-9_]+) <([^>]+)> \. \}$`)

// selectFetchUnion evaluates the Fetcher's UNION-of-independent-BIND-
// branches query shape. Each branch is matched against backend on its
// own — these are UNION arms, not a joined BGP — producing rows scanned
// positionally as (i, p, v, r) by fetcher.go's Run.
func selectFetchUnion(ctx context.Context, backend Backend, query string) ([][]ldcore.Value, error) {
	lines := strings.Split(strings.TrimRight(query, "\n"), "\n")
	var rows [][]ldcore.Value
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || line == "}" || strings.HasPrefix(line, "SELECT") || line == "UNION" {
			continue
		}
		branchRows, err := evalFetchBranch(ctx, backend, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, branchRows...)
	}
	return rows, nil
}

func evalFetchBranch(ctx context.Context, backend Backend, line string) ([][]ldcore.Value, error) {
	if m := fetchExistenceFwd.FindStringSubmatch(line); m != nil {
		return matchExistence(ctx, backend, m[1], m[2], m[3], false)
	}
	if m := fetchExistenceRev.FindStringSubmatch(line); m != nil {
		return matchExistence(ctx, backend, m[1], m[2], m[3], true)
	}
	if m := fetchEdgeFwd.FindStringSubmatch(line); m != nil {
		return matchEdge(ctx, backend, m[1], m[2], m[3], m[4], m[5], false)
	}
	if m := fetchEdgeRev.FindStringSubmatch(line); m != nil {
		return matchEdge(ctx, backend, m[1], m[2], m[3], m[5], m[4], true)
	}
	return nil, ldcore.UnsupportedError("rdf: unrecognized fetch branch: " + line)
}

func matchExistence(ctx context.Context, backend Backend, idxStr, reverseStr, resource string, reverse bool) ([][]ldcore.Value, error) {
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if reverse {
		rows, err = backend.Match(ctx, nil, nil, ptrURI(resource))
	} else {
		rows, err = backend.Match(ctx, &resource, nil, nil)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return [][]ldcore.Value{{
		ldcore.NewIntegral(int64(idx)), ldcore.NewString(""), ldcore.Nil, ldcore.NewBit(reverseStr == "true"),
	}}, nil
}

func matchEdge(ctx context.Context, backend Backend, idxStr, predicate, reverseStr, resource, edgeProp string, reverse bool) ([][]ldcore.Value, error) {
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if reverse {
		rows, err = backend.Match(ctx, nil, &edgeProp, ptrURI(resource))
	} else {
		rows, err = backend.Match(ctx, &resource, &edgeProp, nil)
	}
	if err != nil {
		return nil, err
	}
	out := make([][]ldcore.Value, 0, len(rows))
	for _, r := range rows {
		var v ldcore.Value
		if reverse {
			v = ldcore.NewURI(r.Subject)
		} else {
			v, err = DecodeObject(r.ObjectKind, r.ObjectText, r.ObjectLanguage, r.ObjectDatatype)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, []ldcore.Value{
			ldcore.NewIntegral(int64(idx)), ldcore.NewString(predicate), v, ldcore.NewBit(reverseStr == "true"),
		})
	}
	return out, nil
}

func ptrURI(s string) *ldcore.Value {
	v := ldcore.NewURI(s)
	return &v
}
