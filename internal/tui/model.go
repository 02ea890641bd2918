package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docquery/internal/service"
)

// AskPort is the TUI-facing subset of the pipeline.
type AskPort interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
}

// Model is the Bubble Tea model for the interactive ask loop.
type Model struct {
	pipeline AskPort
	input    textinput.Model
	viewport viewport.Model
	current  service.Answer
	status   string
	cursor   int
	ready    bool
	answered bool
}

// New creates a TUI model over the pipeline. The status line shows ingest
// results until the first question is asked.
func New(pipeline AskPort, status string) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{pipeline: pipeline, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, question box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question != "" {
				ans, err := m.pipeline.Ask(context.Background(), question)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.current = service.Answer{}
					m.answered = false
				} else {
					m.status = fmt.Sprintf("Answered %q with %d source segments", question, len(ans.Sources))
					m.current = ans
					m.cursor = 0
					m.answered = true
				}
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "down":
			if n := len(m.current.Sources); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if n := len(m.current.Sources); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout: header, answer pane, question input, status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docquery")
	answerPane := answerBoxStyle.Render(m.viewport.View())
	input := questionBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + answerPane + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if !m.answered {
		return "Ask a question about the ingested document."
	}
	var b strings.Builder
	b.WriteString(m.current.Text)
	if len(m.current.Sources) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(sourceHeaderStyle.Render(fmt.Sprintf("Sources (%d)", len(m.current.Sources))))
	for i, src := range m.current.Sources {
		b.WriteString("\n")
		line := fmt.Sprintf("[%d] score=%.3f  %s", src.ID, src.Score, firstLine(src.Content))
		if i == m.cursor {
			b.WriteString(selectedSourceStyle.Render("> " + line))
			b.WriteString("\n")
			b.WriteString(src.Content)
		} else {
			b.WriteString("  " + line)
		}
	}
	return b.String()
}

var (
	answerBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const limit = 80
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit]) + "…"
	}
	return s
}
