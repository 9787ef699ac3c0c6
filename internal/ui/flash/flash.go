package flash

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type expireMessageMsg struct {
	id uint64
}

type flashMessage struct {
	text  string
	error error
	id    uint64
}

// Model is the status line: short-lived messages plus an optional busy
// indicator.
type Model struct {
	messages     []flashMessage
	busy         string
	spinner      spinner.Model
	timeout      time.Duration
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	textStyle    lipgloss.Style
	currentId    uint64
}

const maxVisible = 3

func New(timeout time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Model{
		messages:     make([]flashMessage, 0),
		spinner:      s,
		timeout:      timeout,
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd75f")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
		textStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#a8a8a8")),
	}
}

func (m *Model) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case expireMessageMsg:
		m.removeLiveMessageByID(msg.id)
		return nil
	case spinner.TickMsg:
		if m.busy == "" {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}
	return nil
}

// Add shows text, or err when it is set. Errors stay until dismissed; other
// messages expire.
func (m *Model) Add(text string, err error) tea.Cmd {
	id := m.add(text, err)
	if id == 0 || err != nil || m.timeout <= 0 {
		return nil
	}
	return tea.Tick(m.timeout, func(time.Time) tea.Msg {
		return expireMessageMsg{id: id}
	})
}

// SetBusy shows a spinner with label until it is called with "".
func (m *Model) SetBusy(label string) tea.Cmd {
	wasBusy := m.busy != ""
	m.busy = label
	if label == "" || wasBusy {
		return nil
	}
	return m.spinner.Tick
}

func (m *Model) Busy() string {
	return m.busy
}

func (m *Model) Any() bool {
	return len(m.messages) > 0
}

func (m *Model) DeleteOldest() {
	if len(m.messages) == 0 {
		return
	}
	m.messages = m.messages[1:]
}

// View renders the newest messages on one line, newest last.
func (m *Model) View(width int) string {
	var parts []string
	if m.busy != "" {
		parts = append(parts, m.textStyle.Render(m.spinner.View()+" "+m.busy))
	}
	start := max(len(m.messages)-maxVisible, 0)
	for _, message := range m.messages[start:] {
		if message.error != nil {
			parts = append(parts, m.errorStyle.Render("✗ "+message.error.Error()))
			continue
		}
		parts = append(parts, m.successStyle.Render(message.text))
	}
	line := strings.Join(parts, m.textStyle.Render(" │ "))
	if width > 0 && lipgloss.Width(line) > width {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func (m *Model) add(text string, err error) uint64 {
	text = strings.TrimSpace(text)
	if text == "" && err == nil {
		return 0
	}
	msg := flashMessage{id: m.nextId(), text: text, error: err}
	m.messages = append(m.messages, msg)
	return msg.id
}

func (m *Model) removeLiveMessageByID(id uint64) bool {
	for i, message := range m.messages {
		if message.id != id {
			continue
		}
		m.messages = append(m.messages[:i], m.messages[i+1:]...)
		return true
	}
	return false
}

func (m *Model) nextId() uint64 {
	m.currentId = m.currentId + 1
	return m.currentId
}
