// Package schema is a small in-process registry of example Shapes used by
// cmd/ldctl for smoke-testing: real deployments build their own Shapes in
// Go (spec.md's Shape/Property model has no file format of its own), but a
// CLI needs something to point -shape at, so this package plays the role
// the teacher's cmd/server/schemas JSON files play for forma, minus the
// JSON-Schema translation layer.
package schema

import "github.com/lychee-technology/ldstore"

// Names lists the Shapes Lookup knows about, in registration order.
func Names() []string {
	return []string{"person", "document"}
}

// Lookup resolves a registered Shape by name.
func Lookup(name string) (*ldcore.Shape, bool) {
	shape, ok := registry[name]
	return shape, ok
}

var registry = map[string]*ldcore.Shape{
	"person":   personShape(),
	"document": documentShape(),
}

func personShape() *ldcore.Shape {
	shape, err := ldcore.NewShape("http://example.org/ns#Person",
		ldcore.NewProperty("name", ldcore.LiteralType(ldcore.XSDString), ldcore.Cardinality{Min: 1, Max: 1}),
		ldcore.NewProperty("email", ldcore.LiteralType(ldcore.XSDString), ldcore.Cardinality{Min: 0, Max: 1}),
		ldcore.NewProperty("birthDate", ldcore.LiteralType(ldcore.XSDDate), ldcore.Cardinality{Min: 0, Max: 1}),
		ldcore.NewProperty("knows", ldcore.ShapeType(personShapeRef), ldcore.Cardinality{Min: 0, Max: -1}),
	)
	if err != nil {
		panic("schema: invalid person shape: " + err.Error())
	}
	return shape
}

// personShapeRef breaks the Person -> knows -> Person construction cycle
// the way shape.go's ShapeType doc comment describes: the supplier is
// only ever called the first time something resolves "knows", not while
// personShape itself is still being built.
func personShapeRef() *ldcore.Shape {
	return registry["person"]
}

func documentShape() *ldcore.Shape {
	shape, err := ldcore.NewShape("http://example.org/ns#Document",
		ldcore.NewProperty("title", ldcore.LiteralType(ldcore.XSDString), ldcore.Cardinality{Min: 1, Max: 1}),
		ldcore.NewProperty("body", ldcore.LiteralType(ldcore.XSDString), ldcore.Cardinality{Min: 0, Max: 1}),
		ldcore.NewProperty("author", ldcore.ShapeType(personShapeRef), ldcore.Cardinality{Min: 0, Max: 1}),
	)
	if err != nil {
		panic("schema: invalid document shape: " + err.Error())
	}
	return shape
}
