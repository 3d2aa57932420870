package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	subjectdto "studytrack/internal/modules/subject/dto"
	"studytrack/internal/ui/theme"
)

type SessionPort interface {
	ListSubjects(ctx context.Context) ([]subjectdto.SubjectOutput, error)
	GetSubject(ctx context.Context, name string) (subjectdto.SubjectDetailOutput, error)
}

type LoadedMsg struct {
	Entries []Entry
	Err     error
}

// Entry is one session with the subject it belongs to.
type Entry struct {
	Subject string
	Session subjectdto.SessionOutput
}

type Model struct {
	port    SessionPort
	table   table.Model
	entries []Entry
	now     time.Time
	err     error
	width   int
	height  int
}

func New(port SessionPort) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).Bold(true).BorderForeground(theme.Surface1)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)
	return Model{port: port, table: t}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(3, m.height-4))
		return m, nil
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
			m.table.SetRows(m.rows())
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Sessions") + "  ")
	switch {
	case m.err != nil:
		sb.WriteString(theme.Danger.Render(m.err.Error()))
	case len(m.entries) == 0:
		sb.WriteString(theme.Muted.Render("no sessions recorded"))
	default:
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d recorded, %.2f h total", len(m.entries), m.totalHours())))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.table.View())
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

// Reload collects every session across subjects, newest first.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		subjects, err := m.port.ListSubjects(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		var entries []Entry
		for _, s := range subjects {
			detail, err := m.port.GetSubject(ctx, s.Name)
			if err != nil {
				return LoadedMsg{Err: err}
			}
			for _, session := range detail.Sessions {
				entries = append(entries, Entry{Subject: s.Name, Session: session})
			}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Session.Start.After(entries[j].Session.Start)
		})
		return LoadedMsg{Entries: entries}
	}
}

// SetNow refreshes the running row's hours.
func (m *Model) SetNow(now time.Time) {
	m.now = now
	for _, e := range m.entries {
		if e.Session.End == nil {
			m.table.SetRows(m.rows())
			return
		}
	}
}

func (m Model) totalHours() float64 {
	total := 0.0
	for _, e := range m.entries {
		total += e.Session.Hours
	}
	return total
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		end := "running"
		hours := ""
		if e.Session.End != nil {
			end = e.Session.End.Local().Format("15:04")
			hours = fmt.Sprintf("%.2f", e.Session.Hours)
		} else if !m.now.IsZero() {
			hours = fmt.Sprintf("%.2f", max(0, m.now.Sub(e.Session.Start).Hours()))
		}
		rows = append(rows, table.Row{
			e.Subject,
			e.Session.Start.Local().Format("2006-01-02 15:04"),
			end,
			hours,
		})
	}
	return rows
}

func columns(width int) []table.Column {
	subjectW := max(12, width-48)
	return []table.Column{
		{Title: "Subject", Width: subjectW},
		{Title: "Started", Width: 18},
		{Title: "Ended", Width: 9},
		{Title: "Hours", Width: 8},
	}
}
