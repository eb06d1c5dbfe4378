// Package tui provides the interactive chat interface following the
// Elm architecture.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// answerReceived carries the query result back into the update loop.
type answerReceived struct {
	answer *domain.Answer
	err    error
}

// Styles for the chat transcript.
var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	sourcesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))
)

// Chat is the chat TUI model. It keeps the conversation history in
// memory and forwards it with each question.
type Chat struct {
	query      driving.QueryService
	collection string
	ctx        context.Context

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	history []domain.ChatMessage
	sources map[int][]string

	waiting bool
	ready   bool
	err     error
	width   int
	height  int
}

// Ensure Chat implements tea.Model.
var _ tea.Model = (*Chat)(nil)

// NewChat creates the chat model. collection may be empty for the
// default collection.
func NewChat(query driving.QueryService, collection string) *Chat {
	input := textarea.New()
	input.Placeholder = "Ask me anything about your files..."
	input.CharLimit = 2000
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = assistantStyle

	return &Chat{
		query:      query,
		collection: collection,
		ctx:        context.Background(),
		input:      input,
		spinner:    sp,
		sources:    make(map[int][]string),
	}
}

// WithContext sets the context used for query calls.
func (c *Chat) WithContext(ctx context.Context) *Chat {
	c.ctx = ctx
	return c
}

// Init implements tea.Model.
func (c *Chat) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		tea.SetWindowTitle("quarry - chat"),
	)
}

// Update implements tea.Model.
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetDimensions(msg.Width, msg.Height)
		return c, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return c, tea.Quit
		case tea.KeyEnter:
			if c.waiting {
				return c, nil
			}
			question := strings.TrimSpace(c.input.Value())
			if question == "" {
				return c, nil
			}
			c.appendMessage(domain.RoleUser, question)
			c.input.Reset()
			c.waiting = true
			c.err = nil
			return c, tea.Batch(c.spinner.Tick, c.ask(question))
		}

	case answerReceived:
		c.waiting = false
		if msg.err != nil {
			c.err = msg.err
		} else {
			c.appendMessage(domain.RoleAssistant, msg.answer.Text)
			if len(msg.answer.Sources) > 0 {
				c.sources[len(c.history)-1] = msg.answer.Sources
			}
		}
		c.refreshTranscript()
		return c, nil

	case spinner.TickMsg:
		if c.waiting {
			var cmd tea.Cmd
			c.spinner, cmd = c.spinner.Update(msg)
			return c, cmd
		}
		return c, nil
	}

	var inputCmd, viewportCmd tea.Cmd
	c.input, inputCmd = c.input.Update(msg)
	c.viewport, viewportCmd = c.viewport.Update(msg)
	cmds = append(cmds, inputCmd, viewportCmd)

	return c, tea.Batch(cmds...)
}

// View implements tea.Model.
func (c *Chat) View() string {
	if !c.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(c.viewport.View())
	b.WriteString("\n")

	if c.waiting {
		b.WriteString(c.spinner.View() + " thinking...\n")
	} else if c.err != nil {
		b.WriteString(errorStyle.Render("error: "+c.err.Error()) + "\n")
	}

	b.WriteString(c.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send | esc: quit"))
	return b.String()
}

// Run starts the chat program.
func (c *Chat) Run() error {
	p := tea.NewProgram(c, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// History returns the conversation so far.
func (c *Chat) History() []domain.ChatMessage {
	return c.history
}

// Err returns the last query error, if any.
func (c *Chat) Err() error {
	return c.err
}

// Waiting reports whether a query is in flight.
func (c *Chat) Waiting() bool {
	return c.waiting
}

// SetDimensions sizes the viewport and input to the terminal.
func (c *Chat) SetDimensions(width, height int) {
	c.width = width
	c.height = height
	c.ready = true

	inputHeight := c.input.Height() + 2
	c.viewport = viewport.New(width, max(height-inputHeight-2, 3))
	c.input.SetWidth(width)
	c.refreshTranscript()
}

// ask runs the query off the update loop.
func (c *Chat) ask(question string) tea.Cmd {
	// History excludes the question just appended, it is passed
	// separately.
	history := make([]domain.ChatMessage, len(c.history)-1)
	copy(history, c.history[:len(c.history)-1])

	return func() tea.Msg {
		answer, err := c.query.AskWithHistory(c.ctx, history, question, c.collection)
		return answerReceived{answer: answer, err: err}
	}
}

func (c *Chat) appendMessage(role, content string) {
	c.history = append(c.history, domain.ChatMessage{
		Role:    role,
		Content: content,
		Time:    time.Now(),
	})
	c.refreshTranscript()
}

// refreshTranscript rerenders the conversation into the viewport and
// scrolls to the bottom.
func (c *Chat) refreshTranscript() {
	if !c.ready {
		return
	}

	var b strings.Builder
	for i, m := range c.history {
		label := userStyle.Render("You")
		if m.Role == domain.RoleAssistant {
			label = assistantStyle.Render("Assistant")
		}
		stamp := timestampStyle.Render(m.Time.Format("15:04"))
		fmt.Fprintf(&b, "%s %s\n%s\n", label, stamp, m.Content)

		if srcs, ok := c.sources[i]; ok {
			b.WriteString(sourcesStyle.Render("sources: "+strings.Join(srcs, ", ")) + "\n")
		}
		b.WriteString("\n")
	}

	c.viewport.SetContent(b.String())
	c.viewport.GotoBottom()
}
