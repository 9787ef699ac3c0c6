package finder

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sahilm/fuzzy"

	"github.com/idursun/mapview/internal/scene"
)

type SelectedMsg struct {
	Entity *scene.Entity
}

type CancelledMsg struct{}

// NotFoundMsg is sent when enter is pressed with nothing matching Query.
type NotFoundMsg struct {
	Query string
}

type styles struct {
	border   lipgloss.Style
	text     lipgloss.Style
	title    lipgloss.Style
	selected lipgloss.Style
	matched  lipgloss.Style
	dimmed   lipgloss.Style
}

// Model is a fuzzy search over entity names and countries.
type Model struct {
	entities []*scene.Entity
	matches  fuzzy.Matches
	selected int
	input    textinput.Model
	styles   styles
}

const maxVisibleItems = 10

func New(entities []*scene.Entity) *Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "find..."
	ti.CharLimit = 100
	ti.SetWidth(30)
	ti.Focus()

	m := &Model{
		entities: entities,
		input:    ti,
		styles: styles{
			border:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5f87af")),
			text:     lipgloss.NewStyle(),
			title:    lipgloss.NewStyle().Bold(true),
			selected: lipgloss.NewStyle().Reverse(true),
			matched:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaf00")).Bold(true),
			dimmed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		},
	}
	m.search("")
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// String and Len make the model a fuzzy.Source.
func (m *Model) String(i int) string {
	e := m.entities[i]
	if e.Country == "" {
		return e.Name
	}
	return e.Name + " " + e.Country
}

func (m *Model) Len() int {
	return len(m.entities)
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	switch keyMsg.String() {
	case "esc", "ctrl+c":
		return newCmd(CancelledMsg{})
	case "enter":
		if e := m.Selected(); e != nil {
			return newCmd(SelectedMsg{Entity: e})
		}
		return newCmd(NotFoundMsg{Query: strings.TrimSpace(m.input.Value())})
	case "up", "ctrl+p", "shift+tab":
		m.move(-1)
		return nil
	case "down", "ctrl+n", "tab":
		m.move(1)
		return nil
	}
	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.search(m.input.Value())
	}
	return cmd
}

// Selected returns the entity under the cursor, nil when nothing matches.
func (m *Model) Selected() *scene.Entity {
	if m.selected < 0 || m.selected >= len(m.matches) {
		return nil
	}
	return m.entities[m.matches[m.selected].Index]
}

func (m *Model) search(input string) {
	input = strings.TrimSpace(input)
	m.selected = 0
	if input == "" {
		m.matches = make(fuzzy.Matches, len(m.entities))
		for i := range m.entities {
			m.matches[i] = fuzzy.Match{Str: m.String(i), Index: i}
		}
		return
	}
	m.matches = fuzzy.FindFrom(input, m)
}

func (m *Model) move(delta int) {
	n := len(m.matches)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
}

// View renders the finder as a bordered box no wider than width.
func (m *Model) View(width int) string {
	innerWidth := max(min(width-2, 40), 10)
	lines := []string{
		m.styles.title.Render(fmt.Sprintf("Find (%d of %d)", len(m.matches), len(m.entities))),
		m.input.View(),
	}

	start := 0
	if m.selected >= maxVisibleItems {
		start = m.selected - maxVisibleItems + 1
	}
	end := min(start+maxVisibleItems, len(m.matches))
	for i := start; i < end; i++ {
		line := m.renderMatch(m.matches[i])
		if i == m.selected {
			line = m.styles.selected.Render(line)
		}
		lines = append(lines, lipgloss.NewStyle().MaxWidth(innerWidth).Render(line))
	}
	if len(m.matches) == 0 {
		lines = append(lines, m.styles.dimmed.Render("no matches"))
	}
	return m.styles.border.Width(innerWidth + 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderMatch(match fuzzy.Match) string {
	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		matched[i] = true
	}
	var b strings.Builder
	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(m.styles.matched.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
