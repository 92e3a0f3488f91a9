// Package snippet holds the snippet list and the operations the front ends
// perform on it. The list itself lives in a syncstate hook under the
// "snippets" key.
package snippet

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// StorageKey is the key the snippet list is persisted under.
const StorageKey = "snippets"

var (
	ErrTitleRequired   = errors.New("snippet: title is required")
	ErrContentRequired = errors.New("snippet: content is required")
	ErrNotFound        = errors.New("snippet: not found")
)

// Snippet is one stored code or text fragment.
type Snippet struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts records written before updatedAt existed; their
// UpdatedAt is set to CreatedAt.
func (s *Snippet) UnmarshalJSON(data []byte) error {
	type plain Snippet
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	*s = Snippet(p)
	return nil
}

// Edited reports whether the snippet changed after creation.
func (s Snippet) Edited() bool { return s.UpdatedAt.After(s.CreatedAt) }

// NeedsTruncate reports whether a preview should be collapsed: more than
// ten lines or more than 500 characters.
func (s Snippet) NeedsTruncate() bool {
	return strings.Count(s.Content, "\n")+1 > 10 || len([]rune(s.Content)) > 500
}

// FormData is what a user submits to create or edit a snippet.
type FormData struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Normalize trims every field and checks the required ones.
func (f FormData) Normalize() (FormData, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.TrimSpace(f.Content)
	f.Category = strings.TrimSpace(f.Category)
	switch {
	case f.Title == "":
		return f, ErrTitleRequired
	case f.Content == "":
		return f, ErrContentRequired
	}
	return f, nil
}

// NextID returns max(now in ms, highest existing id + 1).
func NextID(list []Snippet, now time.Time) int64 {
	id := now.UnixMilli()
	for _, s := range list {
		if s.ID >= id {
			id = s.ID + 1
		}
	}
	return id
}

func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
