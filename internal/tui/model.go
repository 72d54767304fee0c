package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Conversation is the part of a session the chat screen drives.
type Conversation interface {
	Ask(ctx context.Context, question string) (rag.AskResult, error)
	Build(ctx context.Context, docs []commonModels.Document) (session.BuildReport, error)
	Transcript(ctx context.Context) ([]commonModels.Message, error)
	Reset(ctx context.Context) error
}

// DocumentSource loads the current document set, e.g. every pdf and docx in a folder.
type DocumentSource func() ([]commonModels.Document, error)

// ReindexMsg asks the model to rebuild from its document source. The folder
// watcher sends it through tea.Program.Send.
type ReindexMsg struct{}

type answerMsg struct {
	result rag.AskResult
	err    error
}

type buildMsg struct {
	report session.BuildReport
	err    error
}

type resetMsg struct{ err error }

type Model struct {
	ctx      context.Context
	conv     Conversation
	source   DocumentSource
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	messages []commonModels.Message
	title    string
	status   string
	asking   bool
	building bool
	ready    bool
}

func New(ctx context.Context, conv Conversation, source DocumentSource, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents, /reload or /reset"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		conv:     conv,
		source:   source,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		title:    title,
		status:   "No documents indexed yet.",
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.source != nil {
		cmds = append(cmds, func() tea.Msg { return ReindexMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, boxH := transcriptBoxStyle.GetFrameSize()
		_, inputH := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + inputH + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-boxH)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}

	case ReindexMsg:
		if m.building || m.source == nil {
			return m, nil
		}
		m.building = true
		m.status = "Indexing documents..."
		return m, m.build()

	case buildMsg:
		m.building = false
		m.status = describeBuild(msg.report, msg.err)
		return m, nil

	case answerMsg:
		m.asking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		if msg.result.Status == rag.NotReady {
			m.status = msg.result.Answer
			return m, nil
		}
		m.messages = commonModels.Transcript(msg.result.History)
		m.status = fmt.Sprintf("%d turns", len(msg.result.History))
		m.refresh()
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.status = "Reset failed: " + msg.err.Error()
			return m, nil
		}
		m.messages = nil
		m.status = "Session reset. /reload to index the documents again."
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	switch text {
	case "/reset":
		m.input.SetValue("")
		return m, m.reset()
	case "/reload":
		m.input.SetValue("")
		return m.Update(ReindexMsg{})
	}
	if m.asking {
		m.status = "Still answering the previous question..."
		return m, nil
	}
	m.asking = true
	m.input.SetValue("")
	m.status = "Thinking..."
	return m, m.ask(text)
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.conv.Ask(m.ctx, question)
		return answerMsg{result: res, err: err}
	}
}

// build runs outside the update loop so questions keep being answered
// against the previous index until the new one is bound.
func (m Model) build() tea.Cmd {
	return func() tea.Msg {
		docs, err := m.source()
		if err != nil {
			return buildMsg{err: err}
		}
		report, err := m.conv.Build(m.ctx, docs)
		return buildMsg{report: report, err: err}
	}
}

func (m Model) reset() tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: m.conv.Reset(m.ctx)}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.messages, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(m.title)
	status := m.status
	if m.asking || m.building {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

func describeBuild(report session.BuildReport, err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString("Indexing failed: " + err.Error())
	} else {
		fmt.Fprintf(&b, "Indexed %d of %d documents into %d chunks.", report.Supported, report.Documents, report.Chunks)
	}
	for _, d := range report.Diagnostics {
		b.WriteString(" [skipped " + d + "]")
	}
	return b.String()
}

func renderTranscript(messages []commonModels.Message, width int) string {
	if len(messages) == 0 {
		return "No questions yet."
	}
	wrap := lipgloss.NewStyle().Width(max(10, width-4))
	rows := make([]string, 0, len(messages))
	for _, msg := range messages {
		label := assistantStyle.Render("docgenie")
		if msg.Role == commonModels.RoleUser {
			label = userStyle.Render("you")
		}
		rows = append(rows, label+"\n"+wrap.Render(msg.Text))
	}
	return strings.Join(rows, "\n\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
