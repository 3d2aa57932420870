package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "studytrack/internal/platform/errors"
)

func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data", dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, "", args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestSubjectLifecycleThroughCLI(t *testing.T) {
	dir := t.TempDir()

	if out := mustRun(t, dir, "subject", "add", "Linear", "Algebra", "--hours", "10"); !strings.Contains(out, "added Linear Algebra (10.00 h)") {
		t.Fatalf("unexpected add output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "subjects.json")); err != nil {
		t.Fatalf("blob file not written: %v", err)
	}

	mustRun(t, dir, "session", "start", "Linear Algebra")
	if out := mustRun(t, dir, "session", "status"); !strings.Contains(out, "Linear Algebra since") {
		t.Fatalf("unexpected status: %s", out)
	}
	if _, err := run(t, dir, "", "session", "start", "Linear Algebra"); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected double start rejection, got %v", err)
	}
	if out := mustRun(t, dir, "session", "stop", "Linear Algebra"); !strings.Contains(out, "Stopped studying Linear Algebra.") {
		t.Fatalf("unexpected stop output: %s", out)
	}
	if out := mustRun(t, dir, "progress"); !strings.Contains(out, "Linear Algebra: 0%") {
		t.Fatalf("unexpected progress: %s", out)
	}
	if out := mustRun(t, dir, "subject", "show", "Linear Algebra"); !strings.Contains(out, "sessions=1") {
		t.Fatalf("unexpected show output: %s", out)
	}
}

func TestDestructiveCommandsPrompt(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "subject", "add", "Math", "--hours", "4")

	out, err := run(t, dir, "n\n", "subject", "remove", "Math")
	if !errors.Is(err, errAborted) || !strings.Contains(out, "Remove Math? [y/N]") {
		t.Fatalf("expected abort after prompt, got %v: %s", err, out)
	}
	if out := mustRun(t, dir, "subject", "list"); !strings.Contains(out, "Math") {
		t.Fatalf("subject should survive an aborted remove: %s", out)
	}

	if _, err := run(t, dir, "y\n", "subject", "remove", "Math"); err != nil {
		t.Fatalf("confirmed remove: %v", err)
	}
	if out := mustRun(t, dir, "subject", "list"); !strings.Contains(out, "no subjects") {
		t.Fatalf("subject should be gone: %s", out)
	}
}

func TestExportImportAndMarkdown(t *testing.T) {
	src := t.TempDir()
	mustRun(t, src, "subject", "add", "Química", "--hours", "3")
	exportPath := filepath.Join(t.TempDir(), "subjects.json")
	mustRun(t, src, "export", "json", "--out", exportPath)

	dst := t.TempDir()
	if out := mustRun(t, dst, "import", exportPath, "--yes"); !strings.Contains(out, "imported 1 subjects") {
		t.Fatalf("unexpected import output: %s", out)
	}

	notes := t.TempDir()
	mustRun(t, dst, "export", "markdown", "--out", notes)
	if _, err := os.Stat(filepath.Join(notes, "subjects", "quimica.md")); err != nil {
		t.Fatalf("markdown note missing: %v", err)
	}
}

func TestAddRejectsNonPositiveHours(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "", "subject", "add", "Math", "--hours", "0"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
