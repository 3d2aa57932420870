package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "studytrack/internal/platform/errors"
)

const msPerHour = float64(time.Hour / time.Millisecond)

// Session is one contiguous study interval. End is nil while the session is open.
type Session struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`
}

func (s Session) Open() bool {
	return s.End == nil
}

// Hours is the elapsed time of a closed session, computed from whole
// milliseconds. Open sessions report 0.
func (s Session) Hours() float64 {
	if s.End == nil {
		return 0
	}
	return float64(s.End.Sub(s.Start).Milliseconds()) / msPerHour
}

// Subject is keyed by Name. StudiedHours is a running total maintained on
// stop, not a sum over Sessions.
type Subject struct {
	Name          string    `json:"name"`
	AllottedHours float64   `json:"allottedHours"`
	StudiedHours  float64   `json:"studiedHours"`
	Sessions      []Session `json:"sessions"`
}

func New(name string, allottedHours float64) (Subject, error) {
	subject := Subject{
		Name:          strings.TrimSpace(name),
		AllottedHours: allottedHours,
		Sessions:      []Session{},
	}
	if err := subject.Validate(); err != nil {
		return Subject{}, err
	}
	return subject, nil
}

func (s Subject) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: subject name is required", apperrors.ErrInvalidInput)
	}
	if !validHours(s.AllottedHours) {
		return fmt.Errorf("%w: allotted hours must be a positive number, got %v", apperrors.ErrInvalidInput, s.AllottedHours)
	}
	if math.IsNaN(s.StudiedHours) || math.IsInf(s.StudiedHours, 0) || s.StudiedHours < 0 {
		return fmt.Errorf("%w: studied hours must be non-negative, got %v", apperrors.ErrInvalidInput, s.StudiedHours)
	}
	return nil
}

// ActiveSession returns the open last session, if any. Only the last element
// may be open.
func (s Subject) ActiveSession() (Session, bool) {
	if len(s.Sessions) == 0 {
		return Session{}, false
	}
	last := s.Sessions[len(s.Sessions)-1]
	return last, last.Open()
}

func (s Subject) IsActive() bool {
	_, ok := s.ActiveSession()
	return ok
}

// Clone deep-copies the session slice and end pointers.
func (s Subject) Clone() Subject {
	out := s
	out.Sessions = make([]Session, len(s.Sessions))
	for i, session := range s.Sessions {
		out.Sessions[i] = session
		if session.End != nil {
			end := *session.End
			out.Sessions[i].End = &end
		}
	}
	return out
}

// Start appends an open session. It fails if one is already open.
func (s *Subject) Start(at time.Time) (Session, error) {
	if s.IsActive() {
		return Session{}, apperrors.ErrActiveSessionExists
	}
	session := Session{Start: at}
	s.Sessions = append(s.Sessions, session)
	return session, nil
}

// Stop closes the last session at the given instant and adds its elapsed
// hours to the running total. Negative elapsed time is clamped to zero.
func (s *Subject) Stop(at time.Time) (Session, float64, error) {
	if !s.IsActive() {
		return Session{}, 0, apperrors.ErrNoActiveSession
	}
	last := len(s.Sessions) - 1
	end := at
	s.Sessions[last].End = &end
	elapsed := s.Sessions[last].Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	s.StudiedHours += elapsed
	return s.Sessions[last], elapsed, nil
}

func (s *Subject) Reset() {
	s.StudiedHours = 0
	s.Sessions = []Session{}
}

// Recompute rebuilds StudiedHours from the closed sessions.
func (s *Subject) Recompute() {
	total := 0.0
	for _, session := range s.Sessions {
		if h := session.Hours(); h > 0 {
			total += h
		}
	}
	s.StudiedHours = total
}

func validHours(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0) && h > 0
}
