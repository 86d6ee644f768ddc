// hdrmock generates Google Mock classes from the class declarations in a
// C++ header file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hdrmock/hdrmock/internal/cppast"
	"github.com/hdrmock/hdrmock/internal/discover"
	"github.com/hdrmock/hdrmock/internal/gen"
)

var version = "dev"

// indentEnv names the environment variable overriding the indentation width
// of the generated code.
const indentEnv = "INDENT"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hdrmock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		bases       bool
		showVersion bool
	)

	fs.BoolVar(&bases, "b", false, "also mock methods inherited from base classes")
	fs.BoolVar(&bases, "bases", false, "also mock methods inherited from base classes")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: hdrmock [flags] header [class ...]

Generate Google Mock classes for the classes declared in a C++ header.
With no class names, every class in the header is mocked. If header is a
directory, all header files beneath it are processed.

The %s environment variable overrides the indentation width (default %d).

Flags:
`, indentEnv, gen.DefaultIndent)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "hdrmock %s\n", version)
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing header file argument")
	}
	path := fs.Arg(0)

	opts := gen.Options{
		Classes: fs.Args()[1:],
		Bases:   bases,
		Indent:  indentWidth(stderr),
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("header path: %w", err)
	}
	if info.IsDir() {
		return runDir(path, opts, stdout, stderr)
	}

	lines, processed, err := generateFile(path, opts, stderr)
	if err != nil {
		return err
	}
	gen.ReportUnmatched(stderr, path, opts.Classes, processed)
	writeLines(stdout, lines)
	return nil
}

// generateFile reads and parses one header and generates its mocks.
func generateFile(path string, opts gen.Options, stderr io.Writer) ([]string, map[string]bool, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := cppast.Parse(context.Background(), source)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	res := gen.Generate(source, tree, opts, stderr)
	return res.Lines, res.Processed, nil
}

// runDir generates mocks for every header file under root, in sorted path
// order, batching the selection diagnostics across the whole run.
func runDir(root string, opts gen.Options, stdout, stderr io.Writer) error {
	headers, err := discover.Headers(root)
	if err != nil {
		return fmt.Errorf("discovering headers: %w", err)
	}
	if len(headers) == 0 {
		return fmt.Errorf("no header files found under %s", root)
	}

	var lines []string
	processed := make(map[string]bool)
	for _, rel := range headers {
		fileLines, fileProcessed, err := generateFile(filepath.Join(root, rel), opts, stderr)
		if err != nil {
			return err
		}
		lines = append(lines, fileLines...)
		for name := range fileProcessed {
			processed[name] = true
		}
	}
	gen.ReportUnmatched(stderr, root, opts.Classes, processed)
	writeLines(stdout, lines)
	return nil
}

// writeLines prints the generated output. An empty result stays empty: no
// stray newline is written.
func writeLines(stdout io.Writer, lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprintln(stdout, strings.Join(lines, "\n"))
}

// indentWidth reads the indentation override from the environment. An
// unparsable value is reported and the default kept.
func indentWidth(stderr io.Writer) int {
	value, ok := os.LookupEnv(indentEnv)
	if !ok {
		return gen.DefaultIndent
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(stderr, "Unable to use indent of %q\n", value)
		return gen.DefaultIndent
	}
	return n
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
