package snippet

import (
	"slices"
	"strings"
)

// AllCategories is the category filter value that matches every snippet.
const AllCategories = "all"

// Query narrows a snippet list. An empty Category means AllCategories.
type Query struct {
	Search   string
	Category string
}

// Filter keeps snippets whose title or content contains q.Search (case
// insensitive) and whose category equals q.Category. Order is preserved.
func Filter(list []Snippet, q Query) []Snippet {
	needle := strings.ToLower(q.Search)
	out := make([]Snippet, 0, len(list))
	for _, s := range list {
		if q.Category != "" && q.Category != AllCategories && s.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Title), needle) &&
			!strings.Contains(strings.ToLower(s.Content), needle) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories(list []Snippet) []string {
	seen := make(map[string]struct{}, len(list))
	var out []string
	for _, s := range list {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	return out
}

// CategoryFilters returns AllCategories followed by Categories(list).
func CategoryFilters(list []Snippet) []string {
	return append([]string{AllCategories}, Categories(list)...)
}

// Suggest returns existing categories containing typed (case insensitive),
// skipping the uncategorized label of every language. An empty typed value
// matches every category.
func Suggest(list []Snippet, typed string) []string {
	needle := strings.ToLower(strings.TrimSpace(typed))
	skip := UncategorizedLabels()
	var out []string
	for _, c := range Categories(list) {
		if slices.Contains(skip, c) {
			continue
		}
		if strings.Contains(strings.ToLower(c), needle) {
			out = append(out, c)
		}
	}
	return out
}
