package domain_test

import (
	"math"
	"testing"
	"time"

	"studytrack/internal/modules/subject/domain"
)

func TestNormalizeRepairsCorruptedState(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := []domain.Subject{
		{Name: " Math ", AllottedHours: 10, StudiedHours: 1, Sessions: []domain.Session{{Start: t0}, {Start: t0.Add(time.Hour)}}},
		{Name: "Math", AllottedHours: 5},
		{Name: "", AllottedHours: 5},
		{Name: "Zero", AllottedHours: 0},
		{Name: "NaN", AllottedHours: 3, StudiedHours: math.NaN()},
		{Name: "Nil", AllottedHours: 3},
	}

	out, issues := domain.Normalize(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 subjects, got %d: %+v", len(out), out)
	}
	if len(issues) != 5 {
		t.Fatalf("expected 5 issues, got %v", issues)
	}
	math0 := out[0]
	if math0.Name != "Math" || math0.Sessions[0].Open() || !math0.Sessions[1].Open() {
		t.Fatalf("dangling session not closed: %+v", math0)
	}
	if out[1].StudiedHours != 0 {
		t.Fatalf("NaN studied hours not reset")
	}
	if out[2].Sessions == nil {
		t.Fatalf("nil sessions should become empty slice")
	}
	if !in[0].Sessions[0].Open() {
		t.Fatalf("input must not be mutated")
	}
}
