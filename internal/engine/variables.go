// Package engine implements the cooperative read/write loop described in
// spec.md §4.5-4.12: the Flake builder, the Query planner, the batched
// Fetcher/Selector/Updater workers, the Loader that rounds them, and the
// top-level Retriever/Writer that walk a model value.
package engine

import (
	"strconv"
	"sync"

	"github.com/lychee-technology/ldstore"
)

// VariableScope assigns a stable SPARQL variable name to each distinct
// property path a single planner compilation touches, so that two
// references to the same path (e.g. once in a Filter, once in a Spec)
// reuse one `?vN` binding rather than each minting its own. This is the
// "stable identifier assigned by the fetcher/selector's variable scope"
// spec.md §4.6 refers to when compiling `var(id(path))`.
type VariableScope struct {
	mu   sync.Mutex
	ids  map[string]int
	next int
}

// NewVariableScope returns an empty scope. The root variable "?root"
// (Root) is a fixed name and is not registered in the scope.
func NewVariableScope() *VariableScope {
	return &VariableScope{ids: make(map[string]int)}
}

// ID returns the stable numeric id for path, assigning the next free id
// on first sight.
func (s *VariableScope) ID(path ldcore.Path) int {
	return s.IDFor(path.String())
}

// IDFor is ID keyed directly on a path's string form, for callers that
// already have one (e.g. a Spec's alias).
func (s *VariableScope) IDFor(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[key]; ok {
		return id
	}
	id := s.next
	s.ids[key] = id
	s.next++
	return id
}

// Var renders path's stable variable reference, e.g. "?v3".
func (s *VariableScope) Var(path ldcore.Path) string {
	return "?v" + strconv.Itoa(s.ID(path))
}

// VarFor is Var keyed directly on a string rather than a parsed Path; the
// planner keys its property bindings as the bound subject, ".", and the
// property name.
func (s *VariableScope) VarFor(key string) string {
	return "?v" + strconv.Itoa(s.IDFor(key))
}

// Root is the query's focus variable: every compiled query binds the
// resource under inspection to "?root".
const Root = "?root"
