package domain

import (
	"fmt"
	"math"

	apperrors "studytrack/internal/platform/errors"
)

type Progress struct {
	Percentage     float64
	RemainingHours float64
	// Rounded is Percentage rounded half away from zero, as shown on the meter.
	Rounded int
}

// ComputeProgress derives completion from studied vs. allotted hours.
// Percentage is capped at 100; remaining hours never drop below 0.
func ComputeProgress(s Subject) (Progress, error) {
	if !validHours(s.AllottedHours) {
		return Progress{}, fmt.Errorf("%w: subject %q has non-positive allotted hours", apperrors.ErrInvalidInput, s.Name)
	}
	pct := math.Min(100, 100*s.StudiedHours/s.AllottedHours)
	return Progress{
		Percentage:     pct,
		RemainingHours: math.Max(0, s.AllottedHours-s.StudiedHours),
		Rounded:        int(math.Round(pct)),
	}, nil
}
