package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixForbidden(t *testing.T) {
	pred := PrefixForbidden("snippetmanager/internal/storage")
	cases := []struct {
		in   string
		want bool
	}{
		{"snippetmanager/internal/storage", true},
		{"snippetmanager/internal/storage/sub", true},
		{"snippetmanager/internal/storagex", false},
		{"fmt", false},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, pred(c.in), "PrefixForbidden(%q)", c.in)
	}
}

func TestLayerPredicates(t *testing.T) {
	require.True(t, StorageImportForbidden("snippetmanager/internal/infra/kv/sqlite"))
	require.True(t, StorageImportForbidden("snippetmanager/internal/medium"))
	require.False(t, StorageImportForbidden("snippetmanager/internal/syncstate"))
	require.True(t, PresentationImportForbidden("net/http"))
	require.True(t, PresentationImportForbidden("github.com/charmbracelet/bubbletea"))
	require.True(t, PresentationImportForbidden("net/http/httputil"))
	require.False(t, PresentationImportForbidden("net/url"))
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("a.go", "package p\nimport (\n\t\"fmt\"\n\t\"snippetmanager/internal/kv\"\n)\nvar _ = fmt.Sprint\n")
	write("a_test.go", "package p\nimport \"net/http\"\n")
	write("notes.txt", "ignored")

	viols, err := directImportViolations(dir, func(p string) bool { return p != "fmt" })
	require.NoError(t, err)
	require.Equal(t, []string{"snippetmanager/internal/kv (in a.go)"}, viols)

	write("broken.go", "package p\nimport (")
	_, err = directImportViolations(dir, StorageImportForbidden)
	require.Error(t, err)
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailIfViolations(t *testing.T) {
	var r recordingFatal
	failIfViolations(&r, "reason", nil)
	require.Empty(t, r.msg)
	failIfViolations(&r, "reason", []string{"x (in a.go)"})
	require.Contains(t, r.msg, "reason")
	require.Contains(t, r.msg, "x (in a.go)")
}
