package engine

import (
	"context"
	"sync"

	"github.com/lychee-technology/ldstore"
)

// Retriever walks a model value and assembles the matching result value,
// per §4.11. Each nested resolution is its own goroutine waiting on a
// Fetcher/Selector Future; the Loader's round loop is what actually makes
// progress, since a Fetch scheduled while resolving one property is only
// answered on the *next* run phase — resolution naturally unfolds across
// rounds exactly the way §5's ordering guarantee describes.
type Retriever struct {
	Loader *Loader
}

// NewRetriever builds a Retriever over loader's shared Fetcher/Selector.
func NewRetriever(loader *Loader) *Retriever {
	return &Retriever{Loader: loader}
}

// Retrieve runs one full retrieval of model and returns the assembled
// value, or Nil if nothing matched.
func (r *Retriever) Retrieve(ctx context.Context, model ldcore.Value, locales []ldcore.Locale) (ldcore.Value, error) {
	var result ldcore.Value
	err := r.Loader.Execute(ctx, func(tx ldcore.Transaction) error {
		fut := r.resolve(ctx, model)
		v, err := fut.Wait(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func immediate(v ldcore.Value, err error) *Future {
	f := newFuture()
	f.complete(v, err)
	return f
}

func (r *Retriever) resolve(ctx context.Context, model ldcore.Value) *Future {
	switch model.Case() {
	case ldcore.CaseArray:
		return r.resolveArray(ctx, model)
	case ldcore.CaseObject:
		return r.resolveObjectModel(ctx, model)
	default:
		return immediate(model, nil)
	}
}

func (r *Retriever) resolveArray(ctx context.Context, model ldcore.Value) *Future {
	items, _ := model.AsArray()
	futs := make([]*Future, len(items))
	for i, item := range items {
		futs[i] = r.resolve(ctx, item)
	}
	out := newFuture()
	go func() {
		results := make([]ldcore.Value, 0, len(futs))
		for _, f := range futs {
			v, err := f.Wait(ctx)
			if err != nil {
				out.complete(ldcore.Nil, err)
				return
			}
			if !v.IsNil() {
				results = append(results, v)
			}
		}
		out.complete(ldcore.NewArray(results...), nil)
	}()
	return out
}

func (r *Retriever) resolveObjectModel(ctx context.Context, model ldcore.Value) *Future {
	if q, ok := ldcore.ModelQuery(model); ok {
		edge, virtual, id := modelEdge(model)
		shape, _ := ldcore.ContextShape(model)
		if shape != nil && shape.Virtual() {
			// A Shape declared virtual (§3 "virtual") never has backing
			// storage of its own, whatever modelEdge inferred from the
			// model's own @id/edge shape.
			virtual = true
		}
		task := SelectorTask{Virtual: virtual, ID: id, Edge: edge, Shape: shape, Query: q}
		return r.Loader.Selector.Schedule(task)
	}

	shape, hasShape := ldcore.ContextShape(model)
	if !hasShape {
		return immediate(ldcore.Nil, nil)
	}

	id, hasID := ldcore.ID(model)
	if !hasID {
		return immediate(ldcore.Prune(model), nil)
	}

	return r.resolveObjectByID(ctx, id, shape)
}

// modelEdge extracts the (edge, virtual, id) a Query-carrying model value
// was scoped to, when it was built as a sub-query off a specific
// resource's property (WithID + property name convention: the model's own
// "@id" is the anchor, and the sole non-reserved field name left in the
// object is the property it was attached through).
func modelEdge(model ldcore.Value) (edge *PropertyEdge, virtual bool, id ldcore.Value) {
	anchor, ok := ldcore.ID(model)
	if !ok {
		return nil, true, ldcore.Nil
	}
	for _, f := range model.Fields() {
		if f.Name == "@id" || f.Name == "@context" || f.Name == "@query" {
			continue
		}
		return &PropertyEdge{Anchor: ldcore.NewURI(anchor), Name: f.Name}, false, ldcore.Nil
	}
	return nil, false, ldcore.NewURI(anchor)
}

func (r *Retriever) resolveObjectByID(ctx context.Context, id string, shape *ldcore.Shape) *Future {
	out := newFuture()
	go func() {
		properties := shape.Properties()
		values := make([]ldcore.Value, len(properties))
		errs := make([]error, len(properties))

		var wg sync.WaitGroup
		wg.Add(len(properties))
		for i, prop := range properties {
			go func(i int, prop ldcore.Property) {
				defer wg.Done()
				if prop.Hidden {
					return
				}
				fetched, err := r.Loader.Fetcher.Fetch(id, prop.Name, false).Wait(ctx)
				if err != nil {
					errs[i] = err
					return
				}
				resolved, err := r.resolveProperty(ctx, fetched, prop)
				if err != nil {
					errs[i] = err
					return
				}
				values[i] = resolved
			}(i, prop)
		}
		wg.Wait()

		fields := []ldcore.Field{ldcore.F("@id", ldcore.NewURI(id))}
		for i, prop := range properties {
			if errs[i] != nil {
				out.complete(ldcore.Nil, errs[i])
				return
			}
			if values[i].IsNil() {
				continue
			}
			fields = append(fields, ldcore.F(prop.Name, values[i]))
		}
		obj, err := ldcore.NewObject(fields...)
		out.complete(obj, err)
	}()
	return out
}

// resolveProperty turns a Fetcher result (an Array of raw values, or Nil)
// into the property's contribution to the parent Object: literal values
// pass through as-is (collapsing a single-element Array when the
// property's cardinality is at most one); embedded TypeShape references
// are recursively retrieved into full nested Objects; foreign TypeShape
// references stay as bare id URIs.
func (r *Retriever) resolveProperty(ctx context.Context, fetched ldcore.Value, prop ldcore.Property) (ldcore.Value, error) {
	items, _ := fetched.AsArray()
	if len(items) == 0 {
		return ldcore.Nil, nil
	}

	if prop.Type.Kind() == ldcore.TypeShape && prop.Embedded {
		nested := prop.Type.Shape()
		resolved := make([]ldcore.Value, len(items))
		futs := make([]*Future, len(items))
		for i, item := range items {
			childID, ok := item.AsURI()
			if !ok {
				futs[i] = immediate(item, nil)
				continue
			}
			futs[i] = r.resolveObjectByID(ctx, childID, nested)
		}
		for i, f := range futs {
			v, err := f.Wait(ctx)
			if err != nil {
				return ldcore.Nil, err
			}
			resolved[i] = v
		}
		if !prop.Cardinality.Unbounded() && prop.Cardinality.Max == 1 {
			return resolved[0], nil
		}
		return ldcore.NewArray(resolved...), nil
	}

	if !prop.Cardinality.Unbounded() && prop.Cardinality.Max == 1 {
		return items[0], nil
	}
	return ldcore.NewArray(items...), nil
}
