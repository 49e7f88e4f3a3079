package ldcore

import (
	"strconv"
	"strings"
)

// pathSegment is one step of a parsed Path: a field name, an array index,
// or a wildcard that fans out across every field (Object) or element
// (Array) at that level.
type pathSegment struct {
	name     string
	index    int
	hasIndex bool
	wildcard bool
}

// Path is a parsed dotted property path, e.g. "address.city" or
// "children.*.name" or "tags[0]", as used by Shape property suppliers and
// the Selector/Query layer to read nested Values (§4.1 "Containers",
// §5 Query Expression paths).
type Path struct {
	segments []pathSegment
}

// ParsePath parses a dotted path string. "*" selects every field/element
// at that level; "name[n]" indexes into an array-valued field.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, argumentError("empty-path", "path must not be empty")
	}
	parts := strings.Split(s, ".")
	segs := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Path{}, argumentError("malformed-path", "empty path segment in: "+s)
		}
		if part == "*" {
			segs = append(segs, pathSegment{wildcard: true})
			continue
		}
		name := part
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return Path{}, argumentError("malformed-path", "unterminated index in: "+part)
			}
			name = part[:i]
			idxStr := part[i+1 : len(part)-1]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return Path{}, argumentError("malformed-path", "non-integer index in: "+part)
			}
			segs = append(segs, pathSegment{name: name, index: idx, hasIndex: true})
			continue
		}
		segs = append(segs, pathSegment{name: name})
	}
	return Path{segments: segs}, nil
}

// MustParsePath is ParsePath for callers building literal paths at
// package-init time; it panics on a malformed path.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders p back to its dotted form.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p.segments {
		if i > 0 {
			b.WriteByte('.')
		}
		switch {
		case seg.wildcard:
			b.WriteByte('*')
		case seg.hasIndex:
			b.WriteString(seg.name)
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.index))
			b.WriteByte(']')
		default:
			b.WriteString(seg.name)
		}
	}
	return b.String()
}

// Head returns p's leading segment's field name and whether p has a
// leading name segment at all (false for a path starting with a
// wildcard). Used by the Flake builder to partition expressions by their
// leading property.
func (p Path) Head() (string, bool) {
	if len(p.segments) == 0 || p.segments[0].wildcard {
		return "", false
	}
	return p.segments[0].name, true
}

// Tail returns p with its leading segment removed.
func (p Path) Tail() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[1:]}
}

// Empty reports whether p has no remaining segments.
func (p Path) Empty() bool { return len(p.segments) == 0 }

// Select walks v along p, per §4.1 "Containers": a missing field segment
// yields no matches (not an error); a wildcard fans out across every
// field of an Object or every element of an Array and the results are
// flattened together. Select returns Nil for no matches, the lone match
// for exactly one, or an Array for more than one.
func (p Path) Select(v Value) Value {
	matches := selectSegments(v, p.segments)
	switch len(matches) {
	case 0:
		return Nil
	case 1:
		return matches[0]
	default:
		return NewArray(matches...)
	}
}

func selectSegments(v Value, segs []pathSegment) []Value {
	if len(segs) == 0 {
		return []Value{v}
	}
	seg, rest := segs[0], segs[1:]

	if seg.wildcard {
		var out []Value
		switch v.Case() {
		case CaseObject:
			for _, f := range v.Fields() {
				out = append(out, selectSegments(f.Value, rest)...)
			}
		case CaseArray:
			items, _ := v.AsArray()
			for _, item := range items {
				out = append(out, selectSegments(item, rest)...)
			}
		}
		return out
	}

	child, ok := v.RawField(seg.name)
	if !ok {
		return nil
	}
	if seg.hasIndex {
		child = child.GetIndex(seg.index)
		if child.IsNil() {
			return nil
		}
	}
	return selectSegments(child, rest)
}
