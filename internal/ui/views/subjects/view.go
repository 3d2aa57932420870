package subjects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	subjectdto "studytrack/internal/modules/subject/dto"
	"studytrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type SubjectPort interface {
	ListSubjects(ctx context.Context) ([]subjectdto.SubjectOutput, error)
	GetSubject(ctx context.Context, name string) (subjectdto.SubjectDetailOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type SubjectsLoadedMsg struct {
	Subjects []subjectdto.SubjectOutput
	Err      error
}

type DetailLoadedMsg struct {
	Detail subjectdto.SubjectDetailOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type subjectItem struct {
	subject subjectdto.SubjectOutput
}

func (i subjectItem) Title() string {
	if i.subject.Active {
		return "● " + i.subject.Name
	}
	return i.subject.Name
}

func (i subjectItem) Description() string {
	return fmt.Sprintf("%d%%  %.2f / %.2f h", i.subject.Progress.Rounded, i.subject.StudiedHours, i.subject.AllottedHours)
}

func (i subjectItem) FilterValue() string { return i.subject.Name }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    SubjectPort
	list    list.Model
	detail  subjectdto.SubjectDetailOutput
	preview viewport.Model
	meter   progress.Model
	spinner spinner.Model
	loading bool
	now     time.Time
	width   int
	height  int
}

func New(port SubjectPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Subjects"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		preview: vp,
		meter:   progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Green))),
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case SubjectsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Subjects: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Subjects"
		selected, _ := m.SelectedName()
		items := make([]list.Item, len(msg.Subjects))
		index := 0
		for i, s := range msg.Subjects {
			items[i] = subjectItem{subject: s}
			if s.Name == selected {
				index = i
			}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if len(msg.Subjects) == 0 {
			m.detail = subjectdto.SubjectDetailOutput{}
			m.preview.SetContent(m.renderDetail())
			break
		}
		m.list.Select(index)
		cmds = append(cmds, m.loadDetailCmd(msg.Subjects[index].Name))

	case DetailLoadedMsg:
		if msg.Err == nil {
			m.detail = msg.Detail
			m.preview.SetContent(m.renderDetail())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if item, ok := m.list.SelectedItem().(subjectItem); ok {
				cmds = append(cmds, m.loadDetailCmd(item.subject.Name))
			}
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading subjects…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload fetches the subject list again, keeping the current selection.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		subjects, err := m.port.ListSubjects(context.Background())
		return SubjectsLoadedMsg{Subjects: subjects, Err: err}
	}
}

// SetNow advances the clock used for the running session's elapsed time.
func (m *Model) SetNow(now time.Time) {
	m.now = now
	if m.detail.Active {
		m.preview.SetContent(m.renderDetail())
	}
}

// SelectedName returns the highlighted subject, if any.
func (m Model) SelectedName() (string, bool) {
	if item, ok := m.list.SelectedItem().(subjectItem); ok {
		return item.subject.Name, true
	}
	return "", false
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
	m.meter.Width = max(10, detailW-8)
	m.preview.SetContent(m.renderDetail())
}

func (m Model) renderDetail() string {
	d := m.detail
	if d.Name == "" {
		return theme.Muted.Render("No subjects yet. Press a to add one.")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Name) + "\n\n")
	sb.WriteString(m.meter.ViewAs(d.Progress.Percentage/100) + "\n")
	sb.WriteString(fmt.Sprintf("%s%d%%\n", theme.Muted.Render("progress:  "), d.Progress.Rounded))
	sb.WriteString(fmt.Sprintf("%s%.2f h\n", theme.Muted.Render("allotted:  "), d.AllottedHours))
	sb.WriteString(fmt.Sprintf("%s%.2f h\n", theme.Muted.Render("studied:   "), d.StudiedHours))
	sb.WriteString(fmt.Sprintf("%s%.2f h\n", theme.Muted.Render("remaining: "), d.Progress.RemainingHours))
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("sessions:  "), d.SessionCount))
	if d.Active {
		line := "studying since " + d.ActiveSince.Local().Format("15:04")
		if !m.now.IsZero() {
			line += "  (" + formatElapsed(m.now.Sub(d.ActiveSince)) + ")"
		}
		sb.WriteString("\n" + theme.Hot.Render("● "+line) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("s: start  x: stop  r: reset  d: remove  a: add"))
	return sb.String()
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func (m Model) loadDetailCmd(name string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.port.GetSubject(context.Background(), name)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}
