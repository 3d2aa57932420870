package domain

import (
	"fmt"
	"strings"
	"time"
)

const SchemaVersion = 1

// SessionsBlock names the generated region listing sessions.
const SessionsBlock = "sessions"

type SessionLine struct {
	Start time.Time
	End   *time.Time
	Hours float64
}

func (l SessionLine) String() string {
	start := l.Start.UTC().Format(time.RFC3339)
	if l.End == nil {
		return fmt.Sprintf("- %s, in progress", start)
	}
	return fmt.Sprintf("- %s to %s, %.2f h", start, l.End.UTC().Format(time.RFC3339), l.Hours)
}

// SubjectNote is the exported view of one subject.
type SubjectNote struct {
	Slug           string
	Name           string
	AllottedHours  float64
	StudiedHours   float64
	Percentage     float64
	RemainingHours float64
	Active         bool
	ExportedAt     time.Time
	Sessions       []SessionLine
}

func (n SubjectNote) SessionCount() int {
	return len(n.Sessions)
}

func (n SubjectNote) SessionsMarkdown() string {
	if len(n.Sessions) == 0 {
		return "_No sessions recorded._"
	}
	lines := make([]string, 0, len(n.Sessions))
	for _, session := range n.Sessions {
		lines = append(lines, session.String())
	}
	return strings.Join(lines, "\n")
}

// DefaultBody seeds a note that does not exist yet.
func DefaultBody(name string) string {
	return "# " + name + "\n\n## Notes\n\n## Sessions\n"
}
