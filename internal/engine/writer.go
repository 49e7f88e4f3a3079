package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lychee-technology/ldstore"
)

// Writer is the top-level write traversal (§4.12): create/update/mutate/
// delete/insert/remove/modify, each driven through the shared Loader so a
// single write call still participates in the same round-based ordering
// the Retriever does. Existence checks run as direct, synchronous tuple
// queries against the Loader's held transaction inside the seed closure —
// before any Updater work is scheduled — so "does this resource already
// exist" never races the cooperative round loop the way a Fetcher-batched
// check would.
type Writer struct {
	Loader    *Loader
	Validator ldcore.Validator
}

// NewWriter builds a Writer over loader.
func NewWriter(loader *Loader) *Writer {
	return &Writer{Loader: loader, Validator: ldcore.NewValidator()}
}

func newID() string {
	return "urn:uuid:" + uuid.NewString()
}

func isReservedWriterField(name string) bool {
	return len(name) > 0 && name[0] == '@'
}

func resolveResourceList(v ldcore.Value) ([]ldcore.Value, error) {
	switch v.Case() {
	case ldcore.CaseArray:
		items, _ := v.AsArray()
		var out []ldcore.Value
		for _, item := range items {
			rs, err := resolveResourceList(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
		return out, nil
	case ldcore.CaseObject:
		return []ldcore.Value{v}, nil
	default:
		return nil, ldcore.UnsupportedError("writer input must be an Object or Array of Objects")
	}
}

func existsDirect(ctx context.Context, tx ldcore.Transaction, id string) (bool, error) {
	rows, err := tx.TupleQuery(ctx, fmt.Sprintf("SELECT ?p ?v WHERE { <%s> ?p ?v } LIMIT 1", id))
	if err != nil {
		return false, ldcore.DriverError("existence check failed", err)
	}
	defer rows.Close()
	has := rows.Next()
	return has, rows.Err()
}

// validate checks v against its own "@context" Shape. delta selects delta
// validation (§4.3, §4.12): Mutate's per-field remove-then-insert has no
// whole-resource existence precondition, so a field a caller omits from a
// partial update must not trip that field's minCount.
func (w *Writer) validate(v ldcore.Value, delta bool) error {
	shape, ok := ldcore.ContextShape(v)
	if !ok {
		return nil
	}
	trace := w.Validator.Validate(v, shape, delta)
	if trace.IsNil() {
		return nil
	}
	return ldcore.StoreError("validation-failed", "value does not conform to its shape").WithTrace(trace)
}

// resourceStatements computes the full set of statements a resource
// contributes under id, assigning fresh urn:uuid ids to any embedded
// child Object missing its own "@id" (§4.12 "embedded cascade"). Foreign
// TypeShape properties contribute a single reference statement to the
// (already-existing, independently owned) child id; embedded properties
// additionally recurse to produce the child's own field statements.
func resourceStatements(v ldcore.Value, shape *ldcore.Shape, id string) ([]ldcore.Statement, error) {
	var stmts []ldcore.Statement
	if shape == nil {
		return stmts, nil
	}
	stmts = append(stmts, ldcore.Statement{Subject: id, Predicate: shape.TypeProperty(), Object: ldcore.NewURI(shape.TargetClass())})
	for _, class := range shape.ImplicitClasses() {
		stmts = append(stmts, ldcore.Statement{Subject: id, Predicate: shape.TypeProperty(), Object: ldcore.NewURI(class)})
	}
	for _, f := range v.Fields() {
		if isReservedWriterField(f.Name) {
			continue
		}
		prop, ok := shape.Property(f.Name)
		if !ok {
			continue
		}
		values, _ := normalizeValues(f.Value)
		for _, item := range values {
			item := item
			if prop.Type.Kind() == ldcore.TypeShape {
				childID, hasID := ldcore.ID(item)
				if !hasID {
					childID = newID()
				}
				stmts = append(stmts, ldcore.Statement{Subject: id, Predicate: f.Name, Object: ldcore.NewURI(childID)})
				if prop.Embedded {
					nested, err := resourceStatements(item, prop.Type.Shape(), childID)
					if err != nil {
						return nil, err
					}
					stmts = append(stmts, nested...)
				}
				continue
			}
			stmts = append(stmts, ldcore.Statement{Subject: id, Predicate: f.Name, Object: item})
		}
	}
	return stmts, nil
}

func normalizeValues(raw ldcore.Value) ([]ldcore.Value, bool) {
	if raw.Case() == ldcore.CaseArray {
		items, _ := raw.AsArray()
		return items, true
	}
	if raw.IsNil() {
		return nil, false
	}
	return []ldcore.Value{raw}, false
}

// Create inserts every resource in v, requiring none of them already
// exist (all-or-nothing, §4.12 "create").
func (w *Writer) Create(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}
	for _, r := range resources {
		if err := w.validate(r, false); err != nil {
			return 0, err
		}
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				id = newID()
			}
			exists, err := existsDirect(ctx, tx, id)
			if err != nil {
				return err
			}
			if exists {
				return ldcore.StoreError("already-exists", "create target already exists: "+id)
			}
		}
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				id = newID()
			}
			shape, _ := ldcore.ContextShape(r)
			stmts, err := resourceStatements(r, shape, id)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				w.Loader.Updater.Insert(Task{Resource: ldcore.NewURI(s.Subject), Predicate: ldcore.NewURI(s.Predicate), Object: s.Object})
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Update requires every resource already exist, replaces the statements
// for every non-foreign field it names, and inserts the provided foreign
// references fresh (§4.12 "update").
func (w *Writer) Update(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}
	for _, r := range resources {
		if err := w.validate(r, false); err != nil {
			return 0, err
		}
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				return ldcore.UnsupportedError("update target is missing an @id")
			}
			exists, err := existsDirect(ctx, tx, id)
			if err != nil {
				return err
			}
			if !exists {
				return ldcore.StoreError("not-found", "update target does not exist: "+id)
			}
		}
		for _, r := range resources {
			id, _ := ldcore.ID(r)
			shape, _ := ldcore.ContextShape(r)
			if err := w.replaceFields(ctx, r, shape, id); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (w *Writer) replaceFields(ctx context.Context, v ldcore.Value, shape *ldcore.Shape, id string) error {
	if shape == nil {
		return nil
	}
	for _, f := range v.Fields() {
		if isReservedWriterField(f.Name) {
			continue
		}
		prop, ok := shape.Property(f.Name)
		if !ok {
			continue
		}
		if !prop.Foreign() {
			w.Loader.Updater.Delete(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.NewURI(f.Name), Object: ldcore.Nil})
		}
		values, _ := normalizeValues(f.Value)
		for _, item := range values {
			if prop.Type.Kind() == ldcore.TypeShape {
				childID, hasID := ldcore.ID(item)
				if !hasID {
					childID = newID()
				}
				w.Loader.Updater.Insert(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.NewURI(f.Name), Object: ldcore.NewURI(childID)})
				if prop.Embedded {
					if err := w.replaceFields(ctx, item, prop.Type.Shape(), childID); err != nil {
						return err
					}
				}
				continue
			}
			w.Loader.Updater.Insert(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.NewURI(f.Name), Object: item})
		}
	}
	return nil
}

// Mutate applies a per-field remove-then-insert to every named field of
// every resource, with no whole-resource existence precondition (§4.12
// "mutate").
func (w *Writer) Mutate(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}
	for _, r := range resources {
		if err := w.validate(r, true); err != nil {
			return 0, err
		}
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				id = newID()
			}
			shape, _ := ldcore.ContextShape(r)
			if err := w.replaceFields(ctx, r, shape, id); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes every statement incident to each resource — as subject
// and as object — cascading recursively into embedded children before the
// parent's own statements are removed (§4.12 "delete").
func (w *Writer) Delete(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				return ldcore.UnsupportedError("delete target is missing an @id")
			}
			shape, _ := ldcore.ContextShape(r)
			if err := w.cascadeDelete(ctx, tx, id, shape); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (w *Writer) cascadeDelete(ctx context.Context, tx ldcore.Transaction, id string, shape *ldcore.Shape) error {
	if shape != nil {
		for _, prop := range shape.Properties() {
			if prop.Type.Kind() != ldcore.TypeShape || !prop.Embedded {
				continue
			}
			children, err := embeddedChildren(ctx, tx, id, prop.Name)
			if err != nil {
				return err
			}
			for _, childID := range children {
				if err := w.cascadeDelete(ctx, tx, childID, prop.Type.Shape()); err != nil {
					return err
				}
			}
		}
	}
	w.Loader.Updater.Delete(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.Nil, Object: ldcore.Nil})
	w.Loader.Updater.Delete(Task{Resource: ldcore.Nil, Predicate: ldcore.Nil, Object: ldcore.NewURI(id)})
	return nil
}

func embeddedChildren(ctx context.Context, tx ldcore.Transaction, id, property string) ([]string, error) {
	query := fmt.Sprintf("SELECT ?v WHERE { <%s> :%s ?v }", id, property)
	rows, err := tx.TupleQuery(ctx, query)
	if err != nil {
		return nil, ldcore.DriverError("embedded child lookup failed", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v ldcore.Value
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if uri, ok := v.AsURI(); ok {
			out = append(out, uri)
		}
	}
	return out, rows.Err()
}

// Insert adds every statement a resource names, unconditionally (§4.12
// "insert"): no existence check, no cascaded child assembly beyond what
// resourceStatements already does for an embedded TypeShape property.
func (w *Writer) Insert(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}
	for _, r := range resources {
		if err := w.validate(r, false); err != nil {
			return 0, err
		}
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				id = newID()
			}
			shape, _ := ldcore.ContextShape(r)
			stmts, err := resourceStatements(r, shape, id)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				w.Loader.Updater.Insert(Task{Resource: ldcore.NewURI(s.Subject), Predicate: ldcore.NewURI(s.Predicate), Object: s.Object})
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Remove deletes the statements for every field a resource names,
// unconditionally, without cascading into embedded children (§4.12
// "remove": a detach, not a delete).
func (w *Writer) Remove(ctx context.Context, v ldcore.Value) (int, error) {
	resources, err := resolveResourceList(v)
	if err != nil {
		return 0, err
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range resources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				return ldcore.UnsupportedError("remove target is missing an @id")
			}
			for _, f := range r.Fields() {
				if isReservedWriterField(f.Name) {
					continue
				}
				w.Loader.Updater.Delete(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.NewURI(f.Name), Object: ldcore.Nil})
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Modify runs an Insert and a Remove against the same transaction (§4.12
// "modify"): the insert side is validated, the remove side is not.
func (w *Writer) Modify(ctx context.Context, insert, remove ldcore.Value) (int, error) {
	insertResources, err := resolveResourceList(insert)
	if err != nil {
		return 0, err
	}
	removeResources, err := resolveResourceList(remove)
	if err != nil {
		return 0, err
	}
	for _, r := range insertResources {
		if err := w.validate(r, false); err != nil {
			return 0, err
		}
	}

	count := 0
	err = w.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		for _, r := range removeResources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				return ldcore.UnsupportedError("modify remove target is missing an @id")
			}
			for _, f := range r.Fields() {
				if isReservedWriterField(f.Name) {
					continue
				}
				w.Loader.Updater.Delete(Task{Resource: ldcore.NewURI(id), Predicate: ldcore.NewURI(f.Name), Object: ldcore.Nil})
			}
			count++
		}
		for _, r := range insertResources {
			id, hasID := ldcore.ID(r)
			if !hasID {
				id = newID()
			}
			shape, _ := ldcore.ContextShape(r)
			stmts, err := resourceStatements(r, shape, id)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				w.Loader.Updater.Insert(Task{Resource: ldcore.NewURI(s.Subject), Predicate: ldcore.NewURI(s.Predicate), Object: s.Object})
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
