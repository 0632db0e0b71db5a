package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toolkitrag/internal/domain"
)

// EnginePort is the TUI-facing subset of the engine.
type EnginePort interface {
	Answer(ctx context.Context, query domain.Query) (domain.AnswerRecord, error)
}

// Model is the Bubble Tea model for the interactive Q&A session.
type Model struct {
	engine  EnginePort
	input   textinput.Model
	answer  viewport.Model
	record  *domain.AnswerRecord
	summary string
	status  string
	cursor  int
	ready   bool
}

// New creates a new TUI model instance.
func New(engine EnginePort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, input: ti, answer: vp, summary: summary, status: "Loaded. Ask away."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and query boxes
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.answer.Width = max(20, msg.Width)
		m.answer.Height = max(3, vh-ah)
		m.answer.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				record, err := m.engine.Answer(context.Background(), domain.Query{Text: q, SimilarityThreshold: -1})
				if err != nil {
					m.status = "Error: " + err.Error()
					m.record = nil
				} else {
					m.record = &record
					m.cursor = 0
					if record.Refusal {
						m.status = fmt.Sprintf("No grounded answer for %q", q)
					} else {
						m.status = fmt.Sprintf("Answered %q from %d source(s)", q, len(record.Citations))
					}
				}
				m.answer.SetContent(m.renderAnswer())
				return m, nil
			}
		case "down":
			if m.record != nil && len(m.record.Citations) > 0 {
				m.cursor = (m.cursor + 1) % len(m.record.Citations)
				m.answer.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.record != nil && len(m.record.Citations) > 0 {
				m.cursor = (m.cursor - 1 + len(m.record.Citations)) % len(m.record.Citations)
				m.answer.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Toolkit Q&A")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.answer.View())
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.record == nil {
		return "No answer yet."
	}
	if m.record.Refusal {
		return refusalStyle.Render(m.record.AnswerText)
	}
	var b strings.Builder
	b.WriteString(m.record.AnswerText)
	if len(m.record.Citations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(citationHeaderStyle.Render("Sources"))
		for i, c := range m.record.Citations {
			line := fmt.Sprintf("[%d] %s  score=%.3f", i+1, citationTitle(c), c.SimilarityScore)
			if i == m.cursor {
				line = selectedStyle.Render(line) + "\n    " + c.Snippet
			}
			b.WriteString("\n" + line)
		}
	}
	return b.String()
}

func citationTitle(c domain.Citation) string {
	if c.Heading != "" {
		return c.Heading
	}
	return c.ChunkID
}

var (
	answerBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	refusalStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	citationHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
