package ldcore

import (
	"regexp"
	"sync"
)

// TypeKind distinguishes what a Property's values are shaped like.
type TypeKind int

const (
	// TypeAny accepts any Value case; no datatype or nested shape is
	// enforced.
	TypeAny TypeKind = iota
	// TypeLiteral constrains values to Data/Number/Bit/String/Temporal
	// literals carrying a specific XSD datatype URI.
	TypeLiteral
	// TypeShape constrains values to Objects conforming to a nested
	// Shape, resolved lazily through Type.shape to tolerate cycles
	// (Person.friends : Person).
	TypeShape
)

// Type is a Property's value constraint: either "any", a literal
// datatype, or a nested Shape reached through a lazy supplier.
type Type struct {
	kind     TypeKind
	datatype string // TypeLiteral only

	once    sync.Once
	resolve func() *Shape // TypeShape only; called at most once and cached
	shape   *Shape
}

// AnyType accepts any Value.
func AnyType() Type { return Type{kind: TypeAny} }

// LiteralType constrains a Property to a single XSD datatype.
func LiteralType(datatype string) Type {
	return Type{kind: TypeLiteral, datatype: datatype}
}

// ShapeType constrains a Property to Objects conforming to the Shape
// produced by supplier. supplier is a thunk rather than a *Shape so that
// two Shapes can reference each other without a construction-order cycle:
// neither calls the other's supplier until validation or traversal
// actually needs it, and the result is memoized the first time it does.
func ShapeType(supplier func() *Shape) Type {
	return Type{kind: TypeShape, resolve: supplier}
}

// Shape resolves a TypeShape's nested Shape, calling its supplier at most
// once. It panics if called on a non-TypeShape Type, the same way calling
// AsFoo on the wrong Value case would be a caller bug rather than a
// recoverable condition.
func (t *Type) Shape() *Shape {
	if t.kind != TypeShape {
		panic("ldcore: Shape() called on a non-shape Type")
	}
	t.once.Do(func() { t.shape = t.resolve() })
	return t.shape
}

// Kind reports which TypeKind t is.
func (t Type) Kind() TypeKind { return t.kind }

// Datatype returns t's XSD datatype URI; only meaningful when Kind() ==
// TypeLiteral.
func (t Type) Datatype() string { return t.datatype }

// Cardinality bounds how many values a Property may hold. Max == -1 means
// unbounded.
type Cardinality struct {
	Min, Max int
}

// Required reports whether c demands at least one value.
func (c Cardinality) Required() bool { return c.Min > 0 }

// Unbounded reports whether c has no declared upper bound.
func (c Cardinality) Unbounded() bool { return c.Max < 0 }

// Property is one field of a Shape: a name, the Type its values must
// conform to, a Cardinality, and flags describing how it participates in
// writes and in the wire representation.
type Property struct {
	Name        string
	Type        Type
	Cardinality Cardinality

	// Embedded marks a TypeShape property whose Objects are owned by the
	// parent: Writer cascades create/update/delete to them and
	// synthesizes urn:uuid ids for anonymous children. A non-embedded
	// (foreign) TypeShape property instead stores a reference to an
	// independently-owned resource.
	Embedded bool

	// Hidden properties are part of the domain model but excluded from
	// Retriever's default projection; a caller must name them explicitly
	// in a Query to read them.
	Hidden bool

	// MinExclusive/MaxExclusive/MinInclusive/MaxInclusive bound a
	// Comparable value (§3 "numeric bounds"); a Nil bound is unchecked.
	// Bounds Compare() against the candidate value, so they apply to any
	// ranked case (numbers, temporals, strings), not only numbers.
	MinExclusive Value
	MaxExclusive Value
	MinInclusive Value
	MaxInclusive Value

	// MinLength/MaxLength bound the length, in runes, of a value's
	// canonical string encoding. MaxLength < 0 means unbounded.
	MinLength int
	MaxLength int

	// Pattern, when non-nil, is a regular expression that must find a
	// match somewhere in a value's canonical string encoding (§4.3: find,
	// not full match).
	Pattern *regexp.Regexp

	// In restricts values to a fixed enumeration; empty means
	// unrestricted.
	In []Value

	// LanguageIn restricts Text values to one of these locales; empty
	// means unrestricted.
	LanguageIn []Locale

	// UniqueLang requires that no two Text values bound to this property
	// on the same resource share a locale.
	UniqueLang bool

	// HasValue requires the property's bound values to include this
	// exact value somewhere. A Nil HasValue means no such requirement.
	HasValue Value

	// Constraints are caller-supplied checks beyond the built-in SHACL
	// vocabulary (§3 "user constraints"). Each runs once per bound value;
	// Message becomes the Trace leaf when Check returns false.
	Constraints []Constraint
}

// Constraint is one user-supplied validation rule, run by the Validator
// alongside the built-in SHACL vocabulary.
type Constraint struct {
	Name    string
	Message string
	Check   func(Value) bool
}

// NewProperty builds a Property with the given cardinality. Embedded and
// Hidden default false; MaxLength defaults unbounded; every other
// constraint defaults unchecked. Set them with the With* builders.
func NewProperty(name string, typ Type, card Cardinality) Property {
	return Property{Name: name, Type: typ, Cardinality: card, MaxLength: -1}
}

// WithEmbedded returns a copy of p marked Embedded.
func (p Property) WithEmbedded() Property {
	p.Embedded = true
	return p
}

// WithHidden returns a copy of p marked Hidden.
func (p Property) WithHidden() Property {
	p.Hidden = true
	return p
}

// Foreign reports whether p is a non-embedded TypeShape reference.
func (p Property) Foreign() bool {
	return p.Type.Kind() == TypeShape && !p.Embedded
}

// WithRange returns a copy of p bounded by the given exclusive/inclusive
// limits. Pass Nil for a limit that does not apply.
func (p Property) WithRange(minExclusive, maxExclusive, minInclusive, maxInclusive Value) Property {
	p.MinExclusive = minExclusive
	p.MaxExclusive = maxExclusive
	p.MinInclusive = minInclusive
	p.MaxInclusive = maxInclusive
	return p
}

// WithLength returns a copy of p with its canonical-string length bounded.
// A negative max means unbounded.
func (p Property) WithLength(min, max int) Property {
	p.MinLength = min
	p.MaxLength = max
	return p
}

// WithPattern returns a copy of p whose values must find a match for
// pattern in their canonical string encoding. It panics on an invalid
// regular expression, the same way a malformed Shape built by the caller
// is a caller bug rather than a recoverable condition.
func (p Property) WithPattern(pattern string) Property {
	p.Pattern = regexp.MustCompile(pattern)
	return p
}

// WithIn returns a copy of p restricted to the given enumeration.
func (p Property) WithIn(values ...Value) Property {
	p.In = values
	return p
}

// WithLanguageIn returns a copy of p restricted to Text values in one of
// the given locales.
func (p Property) WithLanguageIn(locales ...Locale) Property {
	p.LanguageIn = locales
	return p
}

// WithUniqueLang returns a copy of p that rejects two bound Text values
// sharing a locale.
func (p Property) WithUniqueLang() Property {
	p.UniqueLang = true
	return p
}

// WithHasValue returns a copy of p that requires v among its bound values.
func (p Property) WithHasValue(v Value) Property {
	p.HasValue = v
	return p
}

// WithConstraints returns a copy of p that also runs the given
// caller-supplied checks.
func (p Property) WithConstraints(constraints ...Constraint) Property {
	p.Constraints = append(append([]Constraint(nil), p.Constraints...), constraints...)
	return p
}

// Shape is an immutable SHACL-style record: the class of Objects it
// targets, and the Properties those Objects are expected to carry. It is
// the schema the Validator checks values against and the Retriever/Writer
// use to know what to fetch or cascade.
type Shape struct {
	targetClass string
	properties  []Property
	index       map[string]int

	// virtual marks a Shape with no backing storage of its own: the
	// Selector never reaches the backend for it (§4.8 "virtual").
	virtual bool

	// idProperty/typeProperty override the default "@id"/"@type" field
	// names a resource uses to carry its identity and class, when the
	// domain model names them something else.
	idProperty   string
	typeProperty string

	// implicitClasses additionally constrain class membership alongside
	// targetClass: a resource must carry every one of these as an
	// additional rdf:type triple to conform.
	implicitClasses []string

	// closed forbids a conforming Object from carrying any field not
	// named by one of s's Properties (§4.3 "closed").
	closed bool
}

// NewShape builds a Shape for targetClass (an absolute class URI) from an
// ordered list of Properties. Duplicate property names are rejected.
func NewShape(targetClass string, properties ...Property) (*Shape, error) {
	idx := make(map[string]int, len(properties))
	for i, p := range properties {
		if _, dup := idx[p.Name]; dup {
			return nil, argumentError("duplicate-property", "duplicate property in shape: "+p.Name)
		}
		idx[p.Name] = i
	}
	return &Shape{targetClass: targetClass, properties: properties, index: idx}, nil
}

// TargetClass returns the absolute class URI s targets.
func (s *Shape) TargetClass() string { return s.targetClass }

// Properties returns s's properties in declaration order.
func (s *Shape) Properties() []Property { return s.properties }

// Property looks up a property by name, reporting false if s has none by
// that name.
func (s *Shape) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.properties[i], true
}

// Virtual reports whether s has no backing storage of its own.
func (s *Shape) Virtual() bool { return s.virtual }

// WithVirtual marks s virtual and returns it for chaining.
func (s *Shape) WithVirtual() *Shape {
	s.virtual = true
	return s
}

// IDProperty returns the field name s uses for a resource's identity,
// defaulting to "@id" when unset.
func (s *Shape) IDProperty() string {
	if s.idProperty == "" {
		return "@id"
	}
	return s.idProperty
}

// TypeProperty returns the field name s uses for a resource's class,
// defaulting to "@type" when unset.
func (s *Shape) TypeProperty() string {
	if s.typeProperty == "" {
		return "@type"
	}
	return s.typeProperty
}

// WithIDProperty overrides the field name used for identity and returns s
// for chaining.
func (s *Shape) WithIDProperty(name string) *Shape {
	s.idProperty = name
	return s
}

// WithTypeProperty overrides the field name used for class and returns s
// for chaining.
func (s *Shape) WithTypeProperty(name string) *Shape {
	s.typeProperty = name
	return s
}

// ImplicitClasses returns the additional classes a conforming resource
// must carry alongside TargetClass.
func (s *Shape) ImplicitClasses() []string { return s.implicitClasses }

// WithImplicitClasses sets s's additional required classes and returns s
// for chaining.
func (s *Shape) WithImplicitClasses(classes ...string) *Shape {
	s.implicitClasses = classes
	return s
}

// Closed reports whether s rejects fields it does not name.
func (s *Shape) Closed() bool { return s.closed }

// WithClosed marks s closed and returns it for chaining.
func (s *Shape) WithClosed() *Shape {
	s.closed = true
	return s
}

// Walk invokes visit for s and, transitively, every nested Shape reached
// through an embedded or foreign TypeShape property, each exactly once —
// a Shape that refers back to an ancestor (directly or through a cycle of
// references) is visited only on first encounter, so it tolerates cyclic
// shape graphs (§9 "breaking cycles"). Nothing in this module calls it;
// the Validator and the Flake builder recurse into nested Shapes on
// their own.
func (s *Shape) Walk(visit func(*Shape)) {
	s.walk(visit, make(map[*Shape]bool))
}

func (s *Shape) walk(visit func(*Shape), seen map[*Shape]bool) {
	if seen[s] {
		return
	}
	seen[s] = true
	visit(s)
	for _, p := range s.properties {
		if p.Type.Kind() == TypeShape {
			if nested := p.Type.Shape(); nested != nil {
				nested.walk(visit, seen)
			}
		}
	}
}
