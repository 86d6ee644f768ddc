package gen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hdrmock/hdrmock/internal/decl"
)

var (
	lineComments = regexp.MustCompile(`//[^\n]*`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// templateReturnWarning precedes any method whose return type carries more
// than one template argument: the comma inside the type would split the
// macro arguments, so the declaration needs a typedef to compile.
var templateReturnWarning = []string{
	"// The following line won't really compile, as the return",
	"// type has multiple template arguments.  To fix it, use a",
	"// typedef for the return type.",
}

// mockMethods appends MOCK_METHOD macro invocations for every virtual,
// pure-virtual, or override method of class, excluding constructors and
// destructors. When base flattening is on it recurses into resolvable base
// classes depth-first, sharing seen so a signature reached through several
// paths is emitted once, at the first position encountered. An extraction
// failure aborts the current class; the caller decides whether that ends a
// base branch or the whole emission.
func (e *emitter) mockMethods(lines *[]string, class *decl.Class, seen map[string]bool) error {
	for _, node := range class.Body {
		fn, ok := node.(*decl.Function)
		if !ok {
			continue
		}
		if !fn.Modifiers.Any(decl.Virtual|decl.PureVirtual|decl.Override) ||
			fn.Modifiers.Any(decl.Constructor|decl.Destructor) {
			continue
		}
		m, err := e.mockMethod(fn, class)
		if err != nil {
			return fmt.Errorf("method %s: %w", fn.Name, err)
		}
		if seen[m.decl+m.cont] {
			continue
		}
		seen[m.decl+m.cont] = true
		if m.warn {
			for _, w := range templateReturnWarning {
				*lines = append(*lines, e.indent+w)
			}
		}
		*lines = append(*lines, m.decl, m.cont)
	}

	if !e.opts.Bases {
		return nil
	}
	for _, base := range class.Bases {
		bc := e.findBase(class, base)
		if bc == nil {
			continue
		}
		*lines = append(*lines, e.indent+"// Inherited from "+bc.FullName())
		if err := e.mockMethods(lines, bc, seen); err != nil {
			fmt.Fprintf(e.diag, "skipping inherited methods from %s: %v\n", bc.FullName(), err)
			continue
		}
	}
	return nil
}

// mockLine is one rendered macro invocation: the declaration line, the
// continuation line, and whether the template-return warning applies.
type mockLine struct {
	decl string
	cont string
	warn bool
}

// mockMethod renders the two-line macro invocation for a single method. The
// rendering depends only on the method, its class, and the configured
// indentation width.
func (e *emitter) mockMethod(fn *decl.Function, class *decl.Class) (mockLine, error) {
	constPart := ""
	if fn.Modifiers.Any(decl.Const) {
		constPart = "CONST_"
	}
	templatePart := ""
	if class.TemplateParams > 0 {
		templatePart = "_T"
	}

	arity := len(fn.Parameters)
	if arity == 1 {
		text, err := e.sourceSpan(fn.Parameters[0].Start, fn.Parameters[0].End)
		if err != nil {
			return mockLine{}, err
		}
		// T(void) declares a function with no parameters.
		if strings.TrimSpace(text) == "void" {
			arity = 0
		}
	}

	returnType, warn := returnTypeText(fn.ReturnType)
	args, err := e.paramText(fn)
	if err != nil {
		return mockLine{}, err
	}

	macro := fmt.Sprintf("MOCK_%sMETHOD%d%s", constPart, arity, templatePart)
	return mockLine{
		decl: e.indent + macro + "(" + fn.Name + ",",
		cont: strings.Repeat(e.indent, 3) + returnType + "(" + args + "));",
		warn: warn,
	}, nil
}

// paramText reconstructs the parameter list. When any parameter carries a
// default value the original text cannot be reused (the default would end up
// inside the macro), so the list degrades to bare type names. Otherwise the
// verbatim source between the first and last parameter is used, with line
// comments stripped and whitespace runs collapsed.
func (e *emitter) paramText(fn *decl.Function) (string, error) {
	if len(fn.Parameters) == 0 {
		return "", nil
	}
	for _, p := range fn.Parameters {
		if p.HasDefault {
			names := make([]string, len(fn.Parameters))
			for i, q := range fn.Parameters {
				names[i] = q.Type.Name
			}
			return strings.Join(names, ", "), nil
		}
	}
	text, err := e.sourceSpan(fn.Parameters[0].Start, fn.Parameters[len(fn.Parameters)-1].End)
	if err != nil {
		return "", err
	}
	text = lineComments.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " ")), nil
}

func (e *emitter) sourceSpan(start, end int) (string, error) {
	if start < 0 || end > len(e.source) || start > end {
		return "", fmt.Errorf("parameter span [%d:%d) outside source of %d bytes", start, end, len(e.source))
	}
	return string(e.source[start:end]), nil
}

// returnTypeText renders a return type. The second result reports a return
// type with more than one template argument.
func returnTypeText(t *decl.Type) (string, bool) {
	if t == nil {
		return "void", false
	}
	text := t.Name
	if len(t.Modifiers) > 0 {
		text = strings.Join(t.Modifiers, " ") + " " + text
	}
	warn := false
	if len(t.TemplateArgs) > 0 {
		args := make([]string, len(t.TemplateArgs))
		for i, a := range t.TemplateArgs {
			args[i] = a.Name
		}
		text += "<" + strings.Join(args, ", ") + ">"
		warn = len(args) > 1
	}
	if t.Pointer {
		text += "*"
	}
	if t.Reference {
		text += "&"
	}
	return text, warn
}

// compatibleNamespace reports whether a candidate base class's namespace
// path is a prefix of the derived class's namespace path. This is a
// permissive approximation of scope resolution, not the real thing: two
// same-named classes under distinct equal-length prefixes cannot be told
// apart.
func compatibleNamespace(derived, candidate []string) bool {
	if len(candidate) > len(derived) {
		return false
	}
	for i, seg := range candidate {
		if derived[i] != seg {
			return false
		}
	}
	return true
}

// findBase resolves a base class reference against the full tree, returning
// the first class definition in tree order whose name matches and whose
// namespace is compatible with the derived class, or nil. The tree is
// rescanned for every reference; headers are small enough that caching
// would not pay for itself.
func (e *emitter) findBase(derived *decl.Class, base *decl.Type) *decl.Class {
	for _, node := range e.tree {
		class, ok := node.(*decl.Class)
		if !ok || !class.Definition || class.Name != base.Name {
			continue
		}
		if !compatibleNamespace(derived.Namespace, class.Namespace) {
			continue
		}
		return class
	}
	return nil
}
