// Package gen synthesizes Google Mock class definitions from a parsed
// declaration tree.
package gen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hdrmock/hdrmock/internal/decl"
)

// DefaultIndent is the indentation width used when none is configured.
const DefaultIndent = 2

// Options control a single generation run. Indentation is carried here
// explicitly rather than in process-wide state.
type Options struct {
	// Classes restricts generation to the named classes. Empty means every
	// class in the tree.
	Classes []string
	// Bases includes mocks for methods inherited from base classes.
	Bases bool
	// Indent is the number of spaces per indentation level.
	Indent int
}

// Result holds the output of one generation run.
type Result struct {
	// Lines is the generated output, one element per line, in the order the
	// classes appear in the tree.
	Lines []string
	// Processed records the names of classes a mock was generated for.
	Processed map[string]bool
}

// Generate walks the declaration tree in order and emits a mock class for
// every selected class definition. Diagnostics about skipped inheritance
// branches are written to diag.
func Generate(source []byte, tree []decl.Decl, opts Options, diag io.Writer) Result {
	if opts.Indent <= 0 {
		opts.Indent = DefaultIndent
	}
	selected := make(map[string]bool, len(opts.Classes))
	for _, name := range opts.Classes {
		selected[name] = true
	}

	e := &emitter{
		source: source,
		tree:   tree,
		opts:   opts,
		indent: strings.Repeat(" ", opts.Indent),
		diag:   diag,
	}
	res := Result{Processed: make(map[string]bool)}
	for _, node := range tree {
		class, ok := node.(*decl.Class)
		if !ok || !class.Definition {
			continue
		}
		if len(selected) > 0 && !selected[class.Name] {
			continue
		}
		res.Processed[class.Name] = true
		res.Lines = append(res.Lines, e.emitClass(class)...)
	}
	return res
}

// ReportUnmatched writes the batched post-run selection diagnostics: the
// sorted list of requested classes that were never found, or an empty-result
// notice when no selection was given and nothing was generated. Both are
// non-fatal.
func ReportUnmatched(diag io.Writer, path string, requested []string, processed map[string]bool) {
	if len(requested) > 0 {
		missing := make(map[string]bool)
		for _, name := range requested {
			if !processed[name] {
				missing[name] = true
			}
		}
		if len(missing) == 0 {
			return
		}
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(diag, "Class(es) not found in %s: %s\n", path, strings.Join(names, ", "))
		return
	}
	if len(processed) == 0 {
		fmt.Fprintf(diag, "No class found in %s\n", path)
	}
}

type emitter struct {
	source []byte
	tree   []decl.Decl
	opts   Options
	indent string
	diag   io.Writer
}

// emitClass produces the complete block for one class: namespace wrapping,
// template parameter synthesis, the class prolog, the mocked methods, and
// the closing braces.
func (e *emitter) emitClass(class *decl.Class) []string {
	var lines []string

	for _, ns := range class.Namespace {
		lines = append(lines, fmt.Sprintf("namespace %s {", ns))
	}
	if len(class.Namespace) > 0 {
		lines = append(lines, "")
	}

	parent := class.Name
	if class.TemplateParams > 0 {
		// The tree does not preserve the original template parameter names,
		// so placeholders are synthesized.
		args := make([]string, class.TemplateParams)
		params := make([]string, class.TemplateParams)
		for i := range args {
			args[i] = fmt.Sprintf("T%d", i)
			params[i] = "typename " + args[i]
		}
		lines = append(lines, "template <"+strings.Join(params, ", ")+">")
		parent += "<" + strings.Join(args, ", ") + ">"
	}

	lines = append(lines, fmt.Sprintf("class Mock%s : public %s {", class.Name, parent))
	lines = append(lines, strings.Repeat(" ", e.opts.Indent/2)+"public:")
	body := len(lines)

	if err := e.mockMethods(&lines, class, make(map[string]bool)); err != nil {
		fmt.Fprintf(e.diag, "generating Mock%s: %v\n", class.Name, err)
	}

	// A class without mocked methods does not need an access label.
	if len(lines) == body {
		lines = lines[:body-1]
	}

	lines = append(lines, "};", "")

	for i := len(class.Namespace) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("}  // namespace %s", class.Namespace[i]))
	}
	if len(class.Namespace) > 0 {
		lines = append(lines, "")
	}
	return lines
}
