// Package cppast builds the declaration tree from C++ source text using the
// tree-sitter C++ grammar. Only the declaration shape the generator needs is
// extracted; there is no semantic resolution.
package cppast

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/hdrmock/hdrmock/internal/decl"
)

// Parse parses C++ source into a flat declaration tree: class and struct
// declarations in source order, each carrying its namespace path. Namespace
// bodies are flattened; anonymous namespaces are transparent.
func Parse(ctx context.Context, source []byte) ([]decl.Decl, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing C++ source: %w", err)
	}
	defer tree.Close()

	b := &builder{source: source}
	var decls []decl.Decl
	b.walk(tree.RootNode(), nil, 0, &decls)
	return decls, nil
}

type builder struct {
	source []byte
}

func (b *builder) text(node *sitter.Node) string {
	return string(b.source[node.StartByte():node.EndByte()])
}

// walk collects class declarations depth-first. templateParams carries the
// parameter count of an enclosing template_declaration down to the class it
// introduces.
func (b *builder) walk(node *sitter.Node, namespace []string, templateParams int, out *[]decl.Decl) {
	switch node.Type() {
	case "namespace_definition":
		ns := namespace
		if name := node.ChildByFieldName("name"); name != nil {
			ns = append(append([]string(nil), namespace...), b.text(name))
		}
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				b.walk(body.Child(i), ns, 0, out)
			}
		}
	case "template_declaration":
		count := 0
		if params := node.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.ChildCount()); i++ {
				switch params.Child(i).Type() {
				case "type_parameter_declaration", "optional_type_parameter_declaration",
					"variadic_type_parameter_declaration", "template_template_parameter_declaration",
					"parameter_declaration", "optional_parameter_declaration":
					count++
				}
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			b.walk(node.Child(i), namespace, count, out)
		}
	case "class_specifier", "struct_specifier":
		if c := b.class(node, namespace, templateParams); c != nil {
			*out = append(*out, c)
		}
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			b.walk(node.Child(i), namespace, templateParams, out)
		}
	}
}

// class builds a Class node. Declarations without a body become forward
// declarations (Definition false); anonymous classes are dropped.
func (b *builder) class(node *sitter.Node, namespace []string, templateParams int) *decl.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	c := &decl.Class{
		Name:           b.text(nameNode),
		Namespace:      namespace,
		TemplateParams: templateParams,
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return c
	}
	c.Definition = true

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "base_class_clause" {
			c.Bases = b.bases(child)
		}
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "field_declaration", "function_definition", "declaration":
			if fn := b.function(child, c.Name); fn != nil {
				c.Body = append(c.Body, fn)
			}
		}
	}
	return c
}

// bases reads a base_class_clause. Qualified references are split into
// namespace segments plus the final name; template arguments on a base are
// dropped from the reference.
func (b *builder) bases(node *sitter.Node) []*decl.Type {
	var bases []*decl.Type
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			bases = append(bases, &decl.Type{Name: b.text(child)})
		case "qualified_identifier":
			segs := strings.Split(b.text(child), "::")
			bases = append(bases, &decl.Type{
				Name:      segs[len(segs)-1],
				Namespace: segs[:len(segs)-1],
			})
		case "template_type":
			if name := child.ChildByFieldName("name"); name != nil {
				bases = append(bases, &decl.Type{Name: b.text(name)})
			}
		}
	}
	return bases
}

// function builds a Function from a member declaration, or nil when the
// member is not a function (data members, nested types, friend
// declarations).
func (b *builder) function(node *sitter.Node, className string) *decl.Function {
	pointer, reference := false, false
	var fnDecl *sitter.Node
	for cur := node.ChildByFieldName("declarator"); cur != nil; cur = innerDeclarator(cur) {
		switch cur.Type() {
		case "function_declarator":
			fnDecl = cur
		case "pointer_declarator":
			pointer = true
		case "reference_declarator":
			reference = true
		default:
			return nil
		}
		if fnDecl != nil {
			break
		}
	}
	if fnDecl == nil {
		return nil
	}

	nameNode := innerDeclarator(fnDecl)
	if nameNode == nil {
		return nil
	}
	name := b.text(nameNode)

	var mods decl.Modifier
	if nameNode.Type() == "destructor_name" || strings.HasPrefix(name, "~") {
		mods |= decl.Destructor
	} else if name == className {
		mods |= decl.Constructor
	}

	// Specifiers and return qualifiers live as direct children of the
	// declaration; the grammar has renamed some of these across versions.
	var typeQualifiers []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "virtual", "virtual_function_specifier":
			mods |= decl.Virtual
		case "virtual_specifier":
			if b.text(child) == "override" {
				mods |= decl.Override
			}
		case "type_qualifier":
			typeQualifiers = append(typeQualifiers, b.text(child))
		case "pure_virtual_clause":
			mods |= decl.PureVirtual
		case "number_literal":
			if b.text(child) == "0" {
				mods |= decl.PureVirtual
			}
		}
	}
	if dv := node.ChildByFieldName("default_value"); dv != nil && b.text(dv) == "0" {
		mods |= decl.PureVirtual
	}

	// const qualification and trailing override sit inside the declarator.
	for i := 0; i < int(fnDecl.ChildCount()); i++ {
		child := fnDecl.Child(i)
		switch child.Type() {
		case "type_qualifier":
			if b.text(child) == "const" {
				mods |= decl.Const
			}
		case "virtual_specifier":
			if b.text(child) == "override" {
				mods |= decl.Override
			}
		}
	}

	fn := &decl.Function{
		Name:      name,
		Modifiers: mods,
		Start:     int(node.StartByte()),
		End:       int(node.EndByte()),
	}

	if typeNode := node.ChildByFieldName("type"); typeNode != nil && !mods.Any(decl.Constructor|decl.Destructor) {
		fn.ReturnType = b.typeOf(typeNode)
		fn.ReturnType.Modifiers = typeQualifiers
		fn.ReturnType.Pointer = pointer
		fn.ReturnType.Reference = reference
	}

	if params := fnDecl.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			child := params.Child(i)
			switch child.Type() {
			case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
				fn.Parameters = append(fn.Parameters, b.parameter(child))
			}
		}
	}
	return fn
}

// parameter builds a Parameter. Its span ends where the parameter's name
// identifier begins, so span extraction yields the type text.
func (b *builder) parameter(node *sitter.Node) *decl.Parameter {
	p := &decl.Parameter{
		HasDefault: node.Type() == "optional_parameter_declaration",
		Start:      int(node.StartByte()),
		End:        int(node.EndByte()),
	}

	t := &decl.Type{Name: "..."}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		t = b.typeOf(typeNode)
	}
	if d := node.ChildByFieldName("declarator"); d != nil {
		for cur := d; cur != nil; cur = innerDeclarator(cur) {
			switch cur.Type() {
			case "pointer_declarator", "abstract_pointer_declarator":
				t.Pointer = true
			case "reference_declarator", "abstract_reference_declarator":
				t.Reference = true
			}
		}
		if id := findIdentifier(d); id != nil {
			p.End = int(id.StartByte())
		}
	}
	p.Type = t
	return p
}

// typeOf reads a type node into a Type. Template types keep their argument
// list; qualified names keep the full qualifier in Name, matching how the
// original source spells the type.
func (b *builder) typeOf(node *sitter.Node) *decl.Type {
	switch node.Type() {
	case "template_type":
		t := &decl.Type{}
		if name := node.ChildByFieldName("name"); name != nil {
			t.Name = b.text(name)
		}
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				t.TemplateArgs = append(t.TemplateArgs, &decl.Type{
					Name: collapseWhitespace(b.text(arg)),
				})
			}
		}
		return t
	case "qualified_identifier":
		scope := ""
		if s := node.ChildByFieldName("scope"); s != nil {
			scope = b.text(s) + "::"
		}
		if n := node.ChildByFieldName("name"); n != nil {
			inner := b.typeOf(n)
			inner.Name = scope + inner.Name
			return inner
		}
		return &decl.Type{Name: b.text(node)}
	default:
		return &decl.Type{Name: collapseWhitespace(b.text(node))}
	}
}

// innerDeclarator unwraps one level of a declarator chain: the declarator
// field when present, otherwise the first named child that can continue the
// chain.
func innerDeclarator(node *sitter.Node) *sitter.Node {
	if d := node.ChildByFieldName("declarator"); d != nil {
		return d
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "function_declarator", "pointer_declarator", "reference_declarator",
			"identifier", "field_identifier", "destructor_name", "operator_name",
			"qualified_identifier":
			return child
		}
	}
	return nil
}

// findIdentifier returns the first identifier node beneath a parameter
// declarator, depth-first.
func findIdentifier(node *sitter.Node) *sitter.Node {
	if node.Type() == "identifier" {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if id := findIdentifier(node.NamedChild(i)); id != nil {
			return id
		}
	}
	return nil
}

// collapseWhitespace joins a multi-line type spelling onto one line.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
