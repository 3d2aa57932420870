package in

import (
	"context"

	"studytrack/internal/modules/subject/dto"
)

type Usecase interface {
	AddSubject(ctx context.Context, input dto.AddSubjectInput) (dto.SubjectOutput, error)
	StartSession(ctx context.Context, name string) (dto.StartOutput, error)
	StopSession(ctx context.Context, name string) (dto.StopOutput, error)
	ResetSubject(ctx context.Context, name string) (dto.SubjectOutput, error)
	RemoveSubject(ctx context.Context, name string) (dto.RemoveOutput, error)
	RecomputeSubject(ctx context.Context, name string) (dto.SubjectOutput, error)
	ListSubjects(ctx context.Context) ([]dto.SubjectOutput, error)
	GetSubject(ctx context.Context, name string) (dto.SubjectDetailOutput, error)
	ActiveSessions(ctx context.Context) ([]dto.ActiveSessionOutput, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Reload(ctx context.Context) (bool, error)
}
