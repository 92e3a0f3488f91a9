// Package testutil provides test helpers that keep package layering honest.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const modulePath = "snippetmanager"

// AssertNoDirectImports parses every non-test .go file in dir and fails if
// an import path satisfies forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	failIfViolations(t, reason, viols)
}

// PrefixForbidden matches an import path equal to, or nested under, any prefix.
func PrefixForbidden(prefixes ...string) func(string) bool {
	return func(path string) bool {
		return slices.ContainsFunc(prefixes, func(p string) bool {
			return path == p || strings.HasPrefix(path, p+"/")
		})
	}
}

// StorageImportForbidden matches the packages that know where bytes live.
// Domain code reaches them only through a persister.
var StorageImportForbidden = PrefixForbidden(
	modulePath+"/internal/medium",
	modulePath+"/internal/storage",
	modulePath+"/internal/infra",
	modulePath+"/internal/kv",
)

// PresentationImportForbidden matches the front ends and their frameworks.
var PresentationImportForbidden = PrefixForbidden(
	modulePath+"/internal/cli",
	modulePath+"/internal/tui",
	modulePath+"/internal/httpapi",
	"github.com/spf13/cobra",
	"github.com/charmbracelet/bubbletea",
	"github.com/go-chi/chi/v5",
	"net/http",
)

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
