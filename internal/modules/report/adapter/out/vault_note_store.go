package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studytrack/internal/modules/report/domain"
	reportout "studytrack/internal/modules/report/port/out"
	"studytrack/internal/platform/markdown"
)

type VaultNoteStore struct {
	dir string
}

// NewVaultNoteStore writes one note per subject under <root>/subjects.
func NewVaultNoteStore(root string) reportout.NoteStore {
	return &VaultNoteStore{dir: filepath.Join(root, "subjects")}
}

func (s *VaultNoteStore) Dir() string {
	return s.dir
}

func (s *VaultNoteStore) Save(_ context.Context, note domain.SubjectNote) (string, error) {
	notePath := filepath.Join(s.dir, note.Slug+".md")
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create subjects directory: %w", err)
	}

	body := ""
	existing, err := os.ReadFile(notePath)
	switch {
	case err == nil:
		_, existingBody, splitErr := markdown.Split(string(existing))
		if splitErr != nil {
			return "", fmt.Errorf("parse %s: %w", notePath, splitErr)
		}
		body = existingBody
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read %s: %w", notePath, err)
	}
	if strings.TrimSpace(body) == "" {
		body = domain.DefaultBody(note.Name)
	}
	body = markdown.NewBlock(domain.SessionsBlock).Replace(body, note.SessionsMarkdown())

	rendered, err := markdown.Render(toFrontmatter(note), body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(notePath, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write subject note: %w", err)
	}
	return notePath, nil
}

func toFrontmatter(note domain.SubjectNote) []markdown.Field {
	return []markdown.Field{
		{Key: "schema_version", Value: domain.SchemaVersion},
		{Key: "name", Value: note.Name},
		{Key: "allotted_hours", Value: note.AllottedHours},
		{Key: "studied_hours", Value: round2(note.StudiedHours)},
		{Key: "percentage", Value: round2(note.Percentage)},
		{Key: "remaining_hours", Value: round2(note.RemainingHours)},
		{Key: "session_count", Value: note.SessionCount()},
		{Key: "active", Value: note.Active},
		{Key: "exported_at", Value: note.ExportedAt.UTC().Format(time.RFC3339)},
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
