package dto

import "time"

type AddSubjectInput struct {
	Name  string
	Hours float64
}

type SessionOutput struct {
	Start time.Time
	End   *time.Time
	Hours float64
}

type ProgressOutput struct {
	Percentage     float64
	RemainingHours float64
	Rounded        int
}

type SubjectOutput struct {
	Name          string
	AllottedHours float64
	StudiedHours  float64
	SessionCount  int
	Active        bool
	ActiveSince   time.Time
	Progress      ProgressOutput
}

type SubjectDetailOutput struct {
	SubjectOutput
	Sessions []SessionOutput
}

type StartOutput struct {
	Subject   string
	StartedAt time.Time
}

type StopOutput struct {
	Subject      string
	StartedAt    time.Time
	EndedAt      time.Time
	ElapsedHours float64
	StudiedHours float64
	Progress     ProgressOutput
}

type RemoveOutput struct {
	Subject string
	Removed int
}

type ActiveSessionOutput struct {
	Subject   string
	StartedAt time.Time
}

type ImportInput struct {
	Payload []byte
}

type ImportOutput struct {
	Imported int
	Issues   []string
}
