// Package decl defines the declaration tree consumed by the mock generator.
//
// The tree is produced by internal/cppast and is read-only from the
// generator's point of view: nodes are never mutated after construction.
package decl

import "strings"

// Modifier is a bit set of function declaration modifiers.
type Modifier uint8

const (
	Virtual Modifier = 1 << iota
	PureVirtual
	Override
	Const
	Constructor
	Destructor
)

// Any reports whether the set contains at least one of the given flags.
func (m Modifier) Any(flags Modifier) bool { return m&flags != 0 }

// Decl is a node in the declaration tree. The set of implementations is
// closed: *Class and *Function.
type Decl interface {
	decl()
}

// Type is a syntactic type reference: a base class, a return type, or a
// parameter type. It records only what the source spells out; no semantic
// resolution is performed.
type Type struct {
	Name         string
	Namespace    []string // explicit qualifier segments, e.g. ns::Base -> ["ns"]
	Modifiers    []string // qualifiers such as "const"
	Pointer      bool
	Reference    bool
	TemplateArgs []*Type
}

// Parameter is a single function parameter. Start and End are byte offsets
// into the original source text covering the parameter's type portion: the
// span stops where the parameter's name identifier begins, so an unnamed
// parameter spans its whole declaration.
type Parameter struct {
	Type       *Type
	HasDefault bool
	Start, End int
}

// Function is a method or free function declaration. Start and End span the
// whole declaration in the original source.
type Function struct {
	Name       string
	Modifiers  Modifier
	ReturnType *Type // nil means void
	Parameters []*Parameter
	Start, End int
}

func (*Function) decl() {}

// Class is a class or struct declaration. Definition distinguishes a
// declaration that carries a body from a forward declaration.
type Class struct {
	Name           string
	Namespace      []string
	Body           []Decl
	Bases          []*Type
	TemplateParams int
	Definition     bool
}

func (*Class) decl() {}

// FullName returns the namespace-qualified class name.
func (c *Class) FullName() string {
	if len(c.Namespace) == 0 {
		return c.Name
	}
	return strings.Join(c.Namespace, "::") + "::" + c.Name
}
