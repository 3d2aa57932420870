package domain

import (
	"fmt"
	"strings"
)

// Normalize repairs a subject list read from storage so that every invariant
// the store relies on holds: valid names and hours, unique names, and at most
// one open session which must be the last. It returns the repaired list and a
// description of each repair.
func Normalize(subjects []Subject) ([]Subject, []string) {
	out := make([]Subject, 0, len(subjects))
	seen := make(map[string]struct{}, len(subjects))
	var issues []string

	for i, raw := range subjects {
		s := raw.Clone()
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			issues = append(issues, fmt.Sprintf("entry %d: dropped, empty name", i))
			continue
		}
		if !validHours(s.AllottedHours) {
			issues = append(issues, fmt.Sprintf("%q: dropped, allotted hours %v", s.Name, s.AllottedHours))
			continue
		}
		if _, dup := seen[s.Name]; dup {
			issues = append(issues, fmt.Sprintf("%q: dropped duplicate", s.Name))
			continue
		}
		seen[s.Name] = struct{}{}

		if !(s.StudiedHours >= 0) || s.StudiedHours > maxHours {
			issues = append(issues, fmt.Sprintf("%q: studied hours %v reset to 0", s.Name, s.StudiedHours))
			s.StudiedHours = 0
		}
		if s.Sessions == nil {
			s.Sessions = []Session{}
		}
		for j := 0; j < len(s.Sessions)-1; j++ {
			if s.Sessions[j].Open() {
				start := s.Sessions[j].Start
				s.Sessions[j].End = &start
				issues = append(issues, fmt.Sprintf("%q: closed dangling session %d", s.Name, j))
			}
		}
		out = append(out, s)
	}
	return out, issues
}

// maxHours catches +Inf in studied hours.
const maxHours = 1e12
