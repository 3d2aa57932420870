package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	subjectdto "studytrack/internal/modules/subject/dto"
	apperrors "studytrack/internal/platform/errors"
	"studytrack/internal/ui/components"
	"studytrack/internal/ui/theme"
	sessionsview "studytrack/internal/ui/views/sessions"
	subjectsview "studytrack/internal/ui/views/subjects"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type subjectPort interface {
	ListSubjects(ctx context.Context) ([]subjectdto.SubjectOutput, error)
	GetSubject(ctx context.Context, name string) (subjectdto.SubjectDetailOutput, error)
	ActiveSessions(ctx context.Context) ([]subjectdto.ActiveSessionOutput, error)
	AddSubject(ctx context.Context, name string, hours float64) (subjectdto.SubjectOutput, error)
	StartSession(ctx context.Context, name string) (subjectdto.StartOutput, error)
	StopSession(ctx context.Context, name string) (subjectdto.StopOutput, error)
	ResetSubject(ctx context.Context, name string) (subjectdto.SubjectOutput, error)
	RemoveSubject(ctx context.Context, name string) (subjectdto.RemoveOutput, error)
	RecomputeSubject(ctx context.Context, name string) (subjectdto.SubjectOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabSubjects tabID = iota
	tabSessions
	tabCount
)

var tabLabels = [tabCount]string{"Subjects", "Sessions"}

// ─── messages ────────────────────────────────────────────────────────────────

// ExternalChangeMsg tells the model the store was reloaded from disk.
type ExternalChangeMsg struct{}

type tickMsg time.Time

type activeLoadedMsg struct {
	active []subjectdto.ActiveSessionOutput
	err    error
}

// operationDoneMsg carries the status line for a finished mutation.
type operationDoneMsg struct {
	status string
	err    error
}

const (
	actionReset  = "reset"
	actionRemove = "remove"
)

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Add     key.Binding
	Start   key.Binding
	Stop    key.Binding
	Reset   key.Binding
	Remove  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add subject")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start session")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop session")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset subject")),
		Remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove subject")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Start, k.Stop},
		{k.Reset, k.Remove},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the active session
// indicator, the help overlay, the command palette and the confirm prompt.
type Model struct {
	subjects subjectPort

	subjectView subjectsview.Model
	sessionView sessionsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	confirm   components.Confirm
	active    []subjectdto.ActiveSessionOutput
	now       time.Time
	status    string
	width     int
	height    int
}

func NewModel(subjects subjectPort) Model {
	return Model{
		subjects:    subjects,
		subjectView: subjectsview.New(subjects),
		sessionView: sessionsview.New(subjects),
		activeTab:   tabSubjects,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.subjectView.Init(),
		m.sessionView.Init(),
		m.loadActiveCmd(),
		tick(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Overlays intercept all input while open.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		if m.palette.Visible() {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
		if m.confirm.Visible() {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.subjectView.SetNow(m.now)
		m.sessionView.SetNow(m.now)
		return m, tick()

	case activeLoadedMsg:
		if msg.err != nil && !errors.Is(msg.err, apperrors.ErrNoActiveSession) {
			m.status = "active session check: " + msg.err.Error()
		}
		m.active = msg.active
		return m, nil

	case ExternalChangeMsg:
		m.status = "reloaded after external change"
		return m, m.refreshCmd()

	case operationDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		return m, m.refreshCmd()

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case components.ConfirmMsg:
		if !msg.Accepted {
			m.status = "cancelled"
			return m, nil
		}
		switch msg.Action {
		case actionReset:
			return m, m.resetCmd(msg.Subject)
		case actionRemove:
			return m, m.removeCmd(msg.Subject)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the subject list while its filter is open.
		if m.activeTab == tabSubjects && m.subjectView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open("")
		case "a":
			return m, m.palette.Open("subject:add ")
		case "s":
			return m.withSelected(m.startCmd)
		case "x":
			return m, m.stopCmd(m.stopTarget())
		case "r":
			return m.askConfirm(actionReset, "Reset %s? Studied hours and sessions are cleared.")
		case "d":
			return m.askConfirm(actionRemove, "Remove %s and all of its sessions?")
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabSubjects:
		m.subjectView, tabCmd = m.subjectView.Update(msg)
	case tabSessions:
		m.sessionView, tabCmd = m.sessionView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	// Data messages go to both views regardless of the visible tab.
	switch msg.(type) {
	case subjectsview.SubjectsLoadedMsg, subjectsview.DetailLoadedMsg:
		if m.activeTab != tabSubjects {
			var cmd tea.Cmd
			m.subjectView, cmd = m.subjectView.Update(msg)
			cmds = append(cmds, cmd)
		}
	case sessionsview.LoadedMsg:
		if m.activeTab != tabSessions {
			var cmd tea.Cmd
			m.sessionView, cmd = m.sessionView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.confirm.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.confirm.View())
	case m.activeTab == tabSessions:
		content = m.sessionView.View()
	default:
		content = m.subjectView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "studytrack  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if len(m.active) > 0 {
		a := m.active[0]
		label := "● " + a.Subject
		if !m.now.IsZero() {
			label += " " + formatElapsed(m.now.Sub(a.StartedAt))
		}
		if len(m.active) > 1 {
			label += fmt.Sprintf(" +%d", len(m.active)-1)
		}
		left = theme.Hot.Render(label) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "subject:add":
		if len(parts) < 3 {
			m.status = "usage: subject:add <hours> <name>"
			return m, nil
		}
		hours, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			m.status = "invalid hours: " + parts[1]
			return m, nil
		}
		name := strings.Join(parts[2:], " ")
		return m, m.addCmd(name, hours)
	case "session:start":
		return m.withSelected(m.startCmd)
	case "session:stop":
		return m, m.stopCmd(m.stopTarget())
	case "subject:reset":
		return m.askConfirm(actionReset, "Reset %s? Studied hours and sessions are cleared.")
	case "subject:remove":
		return m.askConfirm(actionRemove, "Remove %s and all of its sessions?")
	case "subject:recompute":
		return m.withSelected(m.recomputeCmd)
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) withSelected(run func(string) tea.Cmd) (tea.Model, tea.Cmd) {
	name, ok := m.subjectView.SelectedName()
	if !ok {
		m.status = "no subject selected"
		return m, nil
	}
	return m, run(name)
}

func (m Model) askConfirm(action, prompt string) (tea.Model, tea.Cmd) {
	name, ok := m.subjectView.SelectedName()
	if !ok {
		m.status = "no subject selected"
		return m, nil
	}
	m.confirm.Ask(fmt.Sprintf(prompt, name), action, name)
	return m, nil
}

// stopTarget is the highlighted subject. Stopping an idle subject reports
// ErrNoActiveSession rather than stopping some other running session.
func (m Model) stopTarget() string {
	selected, _ := m.subjectView.SelectedName()
	return selected
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.subjectView, _ = m.subjectView.Update(sz)
	m.sessionView, _ = m.sessionView.Update(sz)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// ─── async commands ───────────────────────────────────────────────────────────

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	return tea.Batch(m.subjectView.Reload(), m.sessionView.Reload(), m.loadActiveCmd())
}

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		active, err := m.subjects.ActiveSessions(context.Background())
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) addCmd(name string, hours float64) tea.Cmd {
	return func() tea.Msg {
		out, err := m.subjects.AddSubject(context.Background(), name, hours)
		return operationDoneMsg{status: fmt.Sprintf("added %s (%.2f h)", out.Name, out.AllottedHours), err: err}
	}
}

func (m Model) startCmd(name string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.subjects.StartSession(context.Background(), name)
		return operationDoneMsg{status: "started studying " + out.Subject, err: err}
	}
}

func (m Model) stopCmd(name string) tea.Cmd {
	return func() tea.Msg {
		if name == "" {
			return operationDoneMsg{err: apperrors.ErrNoActiveSession}
		}
		out, err := m.subjects.StopSession(context.Background(), name)
		return operationDoneMsg{
			status: fmt.Sprintf("stopped %s after %.2f h (%d%%)", out.Subject, out.ElapsedHours, out.Progress.Rounded),
			err:    err,
		}
	}
}

func (m Model) resetCmd(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.subjects.ResetSubject(context.Background(), name)
		return operationDoneMsg{status: "reset " + name, err: err}
	}
}

func (m Model) removeCmd(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.subjects.RemoveSubject(context.Background(), name)
		return operationDoneMsg{status: "removed " + name, err: err}
	}
}

func (m Model) recomputeCmd(name string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.subjects.RecomputeSubject(context.Background(), name)
		return operationDoneMsg{status: fmt.Sprintf("recomputed %s: %.2f h", name, out.StudiedHours), err: err}
	}
}
