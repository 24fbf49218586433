package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/lexical"
	"docqa/internal/service"
)

// QAPort is the TUI-facing subset of the RAG service.
type QAPort interface {
	Ask(ctx context.Context, question string) (*service.Answer, error)
}

type answerMsg struct {
	question string
	answer   *service.Answer
	err      error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	service  QAPort
	input    textinput.Model
	viewport viewport.Model
	answer   *service.Answer
	summary  string
	title    string
	status   string
	cursor   int
	ready    bool
	busy     bool
	question string
}

// New creates a new TUI model asking questions about the document at title.
func New(ctx context.Context, svc QAPort, title, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  svc,
		input:    ti,
		viewport: vp,
		title:    title,
		summary:  summary,
		status:   "Loaded. Ask a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.status = fmt.Sprintf("Answered %q from %d source(s)", msg.question, len(msg.answer.Sources))
			m.answer = msg.answer
			m.cursor = 0
			m.question = msg.question
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
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

func (m Model) ask(question string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		ans, err := svc.Ask(ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document QA · " + m.title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) sourceCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Sources)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	out := answerStyle.Render(m.answer.Text)
	if len(m.answer.Sources) == 0 {
		return out + "\n\n" + "No matching sources."
	}
	src := m.answer.Sources[m.cursor]
	title := fmt.Sprintf("Source %d/%d  id=%s  score=%.3f", m.cursor+1, len(m.answer.Sources), src.ID, src.Score)
	return out + "\n\n" + title + "\n\n" + highlightBestSentence(src.Data, m.question)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := lexical.Sentences(text)
	q := lexical.TokenSet(query)
	if len(q) == 0 {
		return strings.Join(trimAll(sentences), " ")
	}
	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := lexical.Overlap(q, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	out := trimAll(sentences)
	out[best] = highlightStyle.Render(out[best])
	return strings.Join(out, " ")
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
