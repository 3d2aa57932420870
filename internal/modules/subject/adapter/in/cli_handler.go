package in

import (
	"context"

	"studytrack/internal/modules/subject/dto"
	subjectin "studytrack/internal/modules/subject/port/in"
)

type CLIHandler struct {
	usecase subjectin.Usecase
}

func NewCLIHandler(usecase subjectin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Add(ctx context.Context, name string, hours float64) (dto.SubjectOutput, error) {
	return h.usecase.AddSubject(ctx, dto.AddSubjectInput{Name: name, Hours: hours})
}

func (h CLIHandler) Start(ctx context.Context, name string) (dto.StartOutput, error) {
	return h.usecase.StartSession(ctx, name)
}

func (h CLIHandler) Stop(ctx context.Context, name string) (dto.StopOutput, error) {
	return h.usecase.StopSession(ctx, name)
}

func (h CLIHandler) Reset(ctx context.Context, name string) (dto.SubjectOutput, error) {
	return h.usecase.ResetSubject(ctx, name)
}

func (h CLIHandler) Remove(ctx context.Context, name string) (dto.RemoveOutput, error) {
	return h.usecase.RemoveSubject(ctx, name)
}

func (h CLIHandler) Recompute(ctx context.Context, name string) (dto.SubjectOutput, error) {
	return h.usecase.RecomputeSubject(ctx, name)
}

func (h CLIHandler) List(ctx context.Context) ([]dto.SubjectOutput, error) {
	return h.usecase.ListSubjects(ctx)
}

func (h CLIHandler) Show(ctx context.Context, name string) (dto.SubjectDetailOutput, error) {
	return h.usecase.GetSubject(ctx, name)
}

func (h CLIHandler) Active(ctx context.Context) ([]dto.ActiveSessionOutput, error) {
	return h.usecase.ActiveSessions(ctx)
}

func (h CLIHandler) Export(ctx context.Context) ([]byte, error) {
	return h.usecase.Export(ctx)
}

func (h CLIHandler) Import(ctx context.Context, payload []byte) (dto.ImportOutput, error) {
	return h.usecase.Import(ctx, dto.ImportInput{Payload: payload})
}
