package snippet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrInvalidImport means the import file is not a JSON array of snippets.
	ErrInvalidImport = errors.New("snippet: invalid import file")
	// ErrNothingToExport is returned when exporting an empty list.
	ErrNothingToExport = errors.New("snippet: nothing to export")
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat accepts json or text (txt); empty means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return ".json"
}

// ContentType returns the MIME type of the export.
func (f Format) ContentType() string {
	if f == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// ImportMode decides how imported snippets combine with the current list.
type ImportMode string

const (
	ModeReplace ImportMode = "replace"
	ModeMerge   ImportMode = "merge"
)

// ParseImportMode accepts replace or merge; empty means merge.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("unknown import mode %q", s)
	}
}

// ExportFileName returns snippets-export-YYYY-MM-DD with the format's
// extension, using the UTC date of now.
func ExportFileName(f Format, now time.Time) string {
	return "snippets-export-" + now.UTC().Format(time.DateOnly) + f.Extension()
}

// Export writes list in format f.
func Export(w io.Writer, list []Snippet, f Format) error {
	if len(list) == 0 {
		return ErrNothingToExport
	}
	switch f {
	case FormatJSON:
		return ExportJSON(w, list)
	case FormatText:
		return ExportText(w, list)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// ExportJSON writes list as a JSON array indented by two spaces.
func ExportJSON(w io.Writer, list []Snippet) error {
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	_, err = w.Write(raw)
	return err
}

// ExportText writes one block per snippet: "[title]", "Category: c", a
// blank line and the content. Blocks are separated by a line of 80 '='.
func ExportText(w io.Writer, list []Snippet) error {
	var b strings.Builder
	sep := "\n" + strings.Repeat("=", 80) + "\n\n"
	for i, s := range list {
		if i > 0 {
			b.WriteString(sep)
		}
		fmt.Fprintf(&b, "[%s]\nCategory: %s\n\n%s\n", s.Title, s.Category, s.Content)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ParseImport decodes a JSON array of snippets.
func ParseImport(r io.Reader) ([]Snippet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", ErrInvalidImport)
	}
	var list []Snippet
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return list, nil
}

// Merge combines imported into current. An imported snippet whose id is
// already known replaces it only when its UpdatedAt is newer; unknown ids are
// prepended in file order. It returns the merged list and how many snippets
// were added or replaced.
func Merge(current, imported []Snippet) ([]Snippet, int) {
	merged := append([]Snippet(nil), current...)
	existing := make(map[int64]int, len(merged))
	for i, s := range merged {
		existing[s.ID] = i
	}
	var fresh []Snippet
	added := make(map[int64]int)
	changed := 0
	for _, s := range imported {
		if i, ok := existing[s.ID]; ok {
			if s.UpdatedAt.After(merged[i].UpdatedAt) {
				merged[i] = s
				changed++
			}
			continue
		}
		if i, ok := added[s.ID]; ok {
			if s.UpdatedAt.After(fresh[i].UpdatedAt) {
				fresh[i] = s
			}
			continue
		}
		added[s.ID] = len(fresh)
		fresh = append(fresh, s)
		changed++
	}
	return append(fresh, merged...), changed
}
