package in

import (
	"context"

	"studytrack/internal/modules/subject/dto"
	subjectin "studytrack/internal/modules/subject/port/in"
)

// TUIHandler is the surface the terminal UI drives.
type TUIHandler struct {
	usecase subjectin.Usecase
}

func NewTUIHandler(usecase subjectin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) ListSubjects(ctx context.Context) ([]dto.SubjectOutput, error) {
	return h.usecase.ListSubjects(ctx)
}

func (h TUIHandler) GetSubject(ctx context.Context, name string) (dto.SubjectDetailOutput, error) {
	return h.usecase.GetSubject(ctx, name)
}

func (h TUIHandler) ActiveSessions(ctx context.Context) ([]dto.ActiveSessionOutput, error) {
	return h.usecase.ActiveSessions(ctx)
}

func (h TUIHandler) AddSubject(ctx context.Context, name string, hours float64) (dto.SubjectOutput, error) {
	return h.usecase.AddSubject(ctx, dto.AddSubjectInput{Name: name, Hours: hours})
}

func (h TUIHandler) StartSession(ctx context.Context, name string) (dto.StartOutput, error) {
	return h.usecase.StartSession(ctx, name)
}

func (h TUIHandler) StopSession(ctx context.Context, name string) (dto.StopOutput, error) {
	return h.usecase.StopSession(ctx, name)
}

func (h TUIHandler) ResetSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	return h.usecase.ResetSubject(ctx, name)
}

func (h TUIHandler) RemoveSubject(ctx context.Context, name string) (dto.RemoveOutput, error) {
	return h.usecase.RemoveSubject(ctx, name)
}

func (h TUIHandler) RecomputeSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	return h.usecase.RecomputeSubject(ctx, name)
}

func (h TUIHandler) Reload(ctx context.Context) (bool, error) {
	return h.usecase.Reload(ctx)
}
