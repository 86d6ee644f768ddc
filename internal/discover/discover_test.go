package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeadersFindsAndSorts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "foo.h", "class Foo {};")
	writeFile(t, dir, "include/bar.hpp", "class Bar {};")
	writeFile(t, dir, "include/baz.hh", "class Baz {};")
	// Non-header files should be ignored
	writeFile(t, dir, "main.cc", "int main() {}")
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.h", "class Hidden {};")

	headers, err := Headers(dir)
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}

	if len(headers) != 3 {
		t.Fatalf("expected 3 headers, got %d: %v", len(headers), headers)
	}

	// Should be sorted
	if headers[0] != "foo.h" {
		t.Errorf("header 0: got %q", headers[0])
	}
	if headers[1] != filepath.Join("include", "bar.hpp") {
		t.Errorf("header 1: got %q", headers[1])
	}
	if headers[2] != filepath.Join("include", "baz.hh") {
		t.Errorf("header 2: got %q", headers[2])
	}
}

func TestHeadersSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "foo.h", "class Foo {};")
	writeFile(t, dir, "build/generated.h", "class Gen {};")
	writeFile(t, dir, "third_party/vendor.h", "class Vendor {};")
	writeFile(t, dir, ".hidden/secret.h", "class Secret {};")

	headers, err := Headers(dir)
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}

	if len(headers) != 1 {
		t.Fatalf("expected 1 header, got %d: %v", len(headers), headers)
	}
	if headers[0] != "foo.h" {
		t.Errorf("expected foo.h, got %q", headers[0])
	}
}

func TestHeadersGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n*_gen.h\n")
	writeFile(t, dir, "foo.h", "class Foo {};")
	writeFile(t, dir, "foo_gen.h", "class FooGen {};")
	writeFile(t, dir, "generated/bar.h", "class Bar {};")

	headers, err := Headers(dir)
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}

	if len(headers) != 1 {
		t.Fatalf("expected 1 header, got %d: %v", len(headers), headers)
	}
	if headers[0] != "foo.h" {
		t.Errorf("expected foo.h, got %q", headers[0])
	}
}

func TestHeadersSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.h", "class Real {};")

	err := os.Symlink(filepath.Join(dir, "real.h"), filepath.Join(dir, "link.h"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	headers, err := Headers(dir)
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}

	if len(headers) != 1 {
		t.Fatalf("expected 1 header (no symlink), got %d", len(headers))
	}
	if headers[0] != "real.h" {
		t.Errorf("expected real.h, got %q", headers[0])
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
