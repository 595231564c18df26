// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Walks through lookup by birth date, member pick, corrections and submission
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/session"
)

// ViewMode is the current step of the correction flow.
type ViewMode int

const (
	ViewDate ViewMode = iota
	ViewPick
	ViewForm
	ViewConfirm
	ViewResult
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	sess     *session.Session
	cfg      *config.Config
	viewMode ViewMode

	// Date step
	dateInput textinput.Model
	matches   []models.Member

	// Pick step
	selectedRow int
	member      models.Member

	// Form step
	correctPhone  bool
	correctEmail  bool
	formInputs    []textinput.Model
	focusIndex    int
	setorialIndex int

	// Result step
	submitting bool
	result     *session.Result
	submitErr  error

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, sess *session.Session, cfg *config.Config) Model {
	date := textinput.New()
	date.Placeholder = "DD/MM/AAAA"
	date.CharLimit = 32
	date.Focus()

	return Model{
		ctx:       ctx,
		sess:      sess,
		cfg:       cfg,
		viewMode:  ViewDate,
		dateInput: date,
		width:     80,
		height:    24,
	}
}

// Run starts the interactive program and blocks until it exits.
func Run(ctx context.Context, sess *session.Session, cfg *config.Config) error {
	p := tea.NewProgram(NewModel(ctx, sess, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case submitDoneMsg:
		m.submitting = false
		m.result = msg.result
		m.submitErr = msg.err
		m.viewMode = ViewResult
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewDate:
		return m.renderDateView()
	case ViewPick:
		return m.renderPickView()
	case ViewForm:
		return m.renderFormView()
	case ViewConfirm:
		return m.renderConfirmView()
	case ViewResult:
		return m.renderResultView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewDate:
		return m.handleDateKeys(msg)
	case ViewPick:
		return m.handlePickKeys(msg)
	case ViewForm:
		return m.handleFormKeys(msg)
	case ViewConfirm:
		return m.handleConfirmKeys(msg)
	case ViewResult:
		return m.handleResultKeys(msg)
	}

	return m, nil
}

// reset returns to an empty date prompt, keeping the window size.
func (m Model) reset() Model {
	fresh := NewModel(m.ctx, m.sess, m.cfg)
	fresh.width = m.width
	fresh.height = m.height
	return fresh
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(20)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
