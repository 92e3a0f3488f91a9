// Package tui is a terminal front end for browsing, filtering and deleting
// snippets.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snippetmanager/internal/snippet"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

type readyMsg struct{}

type changedMsg struct{}

// Model is the bubbletea model of the list view.
type Model struct {
	svc  *snippet.Service
	t    *snippet.Translations
	lang snippet.Language
	keys keyMap
	now  func() time.Time

	search     textinput.Model
	searching  bool
	categories []string
	catIdx     int
	items      []snippet.Snippet
	selected   int
	expanded   map[int64]bool
	confirming bool
	loading    bool
	status     string
	width      int
}

// New returns a model reading from svc.
func New(svc *snippet.Service) Model {
	lang := svc.Language()
	t := snippet.T(lang)
	ti := textinput.New()
	ti.Placeholder = t.Search.Placeholder
	ti.Prompt = "/ "
	m := Model{
		svc:      svc,
		t:        t,
		lang:     lang,
		keys:     defaultKeyMap(),
		now:      time.Now,
		search:   ti,
		expanded: make(map[int64]bool),
		loading:  true,
	}
	select {
	case <-svc.Ready():
		m.loading = false
	default:
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	ready := m.svc.Ready()
	return func() tea.Msg {
		<-ready
		return readyMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		m.loading = false
		m.refresh()
		return m, nil
	case changedMsg:
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirming {
			return m.updateConfirm(msg), nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.selected = 0
	m.refresh()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) Model {
	m.confirming = false
	if !key.Matches(msg, m.keys.Confirm) {
		m.status = ""
		return m
	}
	sn, ok := m.current()
	if !ok {
		return m
	}
	if err := m.svc.Delete(sn.ID); err != nil {
		m.status = err.Error()
	} else {
		m.status = fmt.Sprintf("%s: %s", m.t.Snippet.Delete, sn.Title)
	}
	m.refresh()
	return m
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.NextCategory):
		m.catIdx = (m.catIdx + 1) % len(m.categories)
		m.selected = 0
		m.refresh()
	case key.Matches(msg, m.keys.PrevCategory):
		m.catIdx = (m.catIdx + len(m.categories) - 1) % len(m.categories)
		m.selected = 0
		m.refresh()
	case key.Matches(msg, m.keys.Copy):
		if sn, ok := m.current(); ok {
			if err := copyToClipboard(sn.Content); err != nil {
				m.status = err.Error()
			} else {
				m.status = m.t.Snippet.Copy + " ✓"
			}
		}
	case key.Matches(msg, m.keys.Expand):
		if sn, ok := m.current(); ok {
			m.expanded[sn.ID] = !m.expanded[sn.ID]
		}
	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.current(); ok {
			m.confirming = true
		}
	case key.Matches(msg, m.keys.ClearFilterEsc):
		m.search.SetValue("")
		m.refresh()
	}
	return m, nil
}

// refresh recomputes categories and the visible list from the service.
func (m *Model) refresh() {
	current := ""
	if m.catIdx < len(m.categories) {
		current = m.categories[m.catIdx]
	}
	m.categories = m.svc.Categories()
	m.catIdx = 0
	for i, c := range m.categories {
		if c == current {
			m.catIdx = i
		}
	}
	m.items = m.svc.List(snippet.Query{
		Search:   m.search.Value(),
		Category: m.categories[m.catIdx],
	})
	if m.selected >= len(m.items) {
		m.selected = max(len(m.items)-1, 0)
	}
}

func (m Model) current() (snippet.Snippet, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return snippet.Snippet{}, false
	}
	return m.items[m.selected], true
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	activeStyle   = lipgloss.NewStyle().Underline(true)
	previewStyle  = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("250"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t.Title))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.t.Subtitle))
	b.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.categoryBar())
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(mutedStyle.Render("…"))
		b.WriteString("\n")
		return b.String()
	}
	if len(m.items) == 0 {
		b.WriteString(m.t.Empty.Title)
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.t.Empty.Subtitle))
		b.WriteString("\n")
	}
	now := m.now()
	for i, sn := range m.items {
		line := fmt.Sprintf("%s  [%s]  %s", sn.Title, sn.Category, snippet.RelativeDate(sn.CreatedAt, now, m.lang))
		if sn.Edited() {
			line += " · " + m.t.Snippet.Edited
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
		b.WriteString(previewStyle.Render(m.preview(sn)))
		b.WriteString("\n")
	}

	if m.confirming {
		if sn, ok := m.current(); ok {
			fmt.Fprintf(&b, "\n%s %q ? (y/n)\n", m.t.Snippet.Delete, sn.Title)
		}
	} else if m.status != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) categoryBar() string {
	parts := make([]string, len(m.categories))
	for i, c := range m.categories {
		label := c
		if c == snippet.AllCategories {
			label = m.t.Search.AllCategories
		}
		if i == m.catIdx {
			label = activeStyle.Render(label)
		}
		parts[i] = label
	}
	return strings.Join(parts, " | ")
}

func (m Model) preview(sn snippet.Snippet) string {
	if m.expanded[sn.ID] || !sn.NeedsTruncate() {
		return sn.Content
	}
	lines := strings.SplitN(sn.Content, "\n", 4)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return strings.Join(lines, "\n") + "\n…"
}

// Run starts the program and redraws whenever the snippet list changes.
func Run(ctx context.Context, svc *snippet.Service, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(svc), opts...)
	cancel := svc.Hook().Watch(func([]snippet.Snippet) { go p.Send(changedMsg{}) })
	defer cancel()
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
