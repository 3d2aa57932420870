package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"studytrack/internal/ui/theme"
)

// ConfirmMsg reports the answer to a Confirm prompt. Action is echoed back
// so the caller knows what was being confirmed.
type ConfirmMsg struct {
	Action   string
	Subject  string
	Accepted bool
}

// Confirm is a y/n overlay guarding destructive actions.
type Confirm struct {
	prompt  string
	action  string
	subject string
	visible bool
}

func (c Confirm) Visible() bool { return c.visible }

func (c *Confirm) Ask(prompt, action, subject string) {
	c.prompt = prompt
	c.action = action
	c.subject = subject
	c.visible = true
}

func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !c.visible || !ok {
		return c, nil
	}
	var accepted bool
	switch key.String() {
	case "y", "Y":
		accepted = true
	case "n", "N", "esc", "q":
	default:
		return c, nil
	}
	c.visible = false
	answer := ConfirmMsg{Action: c.action, Subject: c.subject, Accepted: accepted}
	return c, func() tea.Msg { return answer }
}

func (c Confirm) View() string {
	if !c.visible {
		return ""
	}
	return theme.Overlay.BorderForeground(theme.Red).Render(
		theme.Danger.Render(c.prompt) + "\n\n" + theme.Muted.Render("y: confirm  n: cancel"))
}
