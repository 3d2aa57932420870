package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studytrack/internal/modules/subject/domain"
	"studytrack/internal/modules/subject/dto"
	subjectin "studytrack/internal/modules/subject/port/in"
	subjectout "studytrack/internal/modules/subject/port/out"
	"studytrack/internal/modules/subject/service"
	apperrors "studytrack/internal/platform/errors"
	"studytrack/internal/platform/id"
	"studytrack/internal/platform/logging"
)

type Interactor struct {
	store    *service.SubjectStore
	notifier subjectout.Notifier
	ids      id.Generator
	logger   *logging.Logger
}

func NewInteractor(store *service.SubjectStore, notifier subjectout.Notifier, ids id.Generator, logger *logging.Logger) subjectin.Usecase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Interactor{store: store, notifier: notifier, ids: ids, logger: logger}
}

func (i *Interactor) begin(ctx context.Context, op, subject string) context.Context {
	ctx = logging.WithOperation(ctx, i.ids.New(), op)
	return logging.WithSubject(ctx, strings.TrimSpace(subject))
}

func (i *Interactor) AddSubject(ctx context.Context, input dto.AddSubjectInput) (dto.SubjectOutput, error) {
	ctx = i.begin(ctx, "add_subject", input.Name)
	subject, err := i.store.AddSubject(ctx, input.Name, input.Hours)
	if err != nil {
		return dto.SubjectOutput{}, fmt.Errorf("add subject: %w", err)
	}
	i.logger.Info(ctx, "subject added", zap.Float64("allotted_hours", subject.AllottedHours))
	return toOutput(subject), nil
}

func (i *Interactor) StartSession(ctx context.Context, name string) (dto.StartOutput, error) {
	ctx = i.begin(ctx, "start_session", name)
	session, err := i.store.StartSession(ctx, name)
	if err != nil {
		return dto.StartOutput{}, fmt.Errorf("start session %q: %w", name, err)
	}
	subject := strings.TrimSpace(name)
	i.logger.Info(ctx, "session started", zap.Time("start", session.Start))
	i.notify(ctx, "Study session started", fmt.Sprintf("Started studying %s", subject))
	return dto.StartOutput{Subject: subject, StartedAt: session.Start}, nil
}

func (i *Interactor) StopSession(ctx context.Context, name string) (dto.StopOutput, error) {
	ctx = i.begin(ctx, "stop_session", name)
	result, err := i.store.StopSession(ctx, name)
	if err != nil {
		return dto.StopOutput{}, fmt.Errorf("stop session %q: %w", name, err)
	}
	i.logger.Info(ctx, "session stopped",
		zap.Float64("elapsed_hours", result.Elapsed),
		zap.Float64("studied_hours", result.Subject.StudiedHours))
	i.notify(ctx, "Study session stopped",
		fmt.Sprintf("Stopped studying %s. Studied for %.2f hours.", result.Subject.Name, result.Elapsed))

	out := dto.StopOutput{
		Subject:      result.Subject.Name,
		StartedAt:    result.Session.Start,
		ElapsedHours: result.Elapsed,
		StudiedHours: result.Subject.StudiedHours,
		Progress:     progressOutput(result.Subject),
	}
	if result.Session.End != nil {
		out.EndedAt = *result.Session.End
	}
	return out, nil
}

func (i *Interactor) ResetSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	ctx = i.begin(ctx, "reset_subject", name)
	subject, err := i.store.ResetSubject(ctx, name)
	if err != nil {
		return dto.SubjectOutput{}, fmt.Errorf("reset subject %q: %w", name, err)
	}
	i.logger.Info(ctx, "subject reset")
	return toOutput(subject), nil
}

func (i *Interactor) RemoveSubject(ctx context.Context, name string) (dto.RemoveOutput, error) {
	ctx = i.begin(ctx, "remove_subject", name)
	removed, err := i.store.RemoveSubject(ctx, name)
	if err != nil {
		return dto.RemoveOutput{}, fmt.Errorf("remove subject %q: %w", name, err)
	}
	i.logger.Info(ctx, "subject removed", zap.Int("removed", removed))
	return dto.RemoveOutput{Subject: strings.TrimSpace(name), Removed: removed}, nil
}

func (i *Interactor) RecomputeSubject(ctx context.Context, name string) (dto.SubjectOutput, error) {
	ctx = i.begin(ctx, "recompute_subject", name)
	before, err := i.store.Get(name)
	if err != nil {
		return dto.SubjectOutput{}, fmt.Errorf("recompute subject %q: %w", name, err)
	}
	subject, err := i.store.RecomputeSubject(ctx, name)
	if err != nil {
		return dto.SubjectOutput{}, fmt.Errorf("recompute subject %q: %w", name, err)
	}
	i.logger.Info(ctx, "studied hours recomputed",
		zap.Float64("before", before.StudiedHours),
		zap.Float64("after", subject.StudiedHours))
	return toOutput(subject), nil
}

func (i *Interactor) ListSubjects(context.Context) ([]dto.SubjectOutput, error) {
	subjects := i.store.List()
	out := make([]dto.SubjectOutput, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, toOutput(subject))
	}
	return out, nil
}

func (i *Interactor) GetSubject(_ context.Context, name string) (dto.SubjectDetailOutput, error) {
	subject, err := i.store.Get(name)
	if err != nil {
		return dto.SubjectDetailOutput{}, err
	}
	sessions := make([]dto.SessionOutput, 0, len(subject.Sessions))
	for _, session := range subject.Sessions {
		sessions = append(sessions, dto.SessionOutput{Start: session.Start, End: session.End, Hours: session.Hours()})
	}
	return dto.SubjectDetailOutput{SubjectOutput: toOutput(subject), Sessions: sessions}, nil
}

func (i *Interactor) ActiveSessions(context.Context) ([]dto.ActiveSessionOutput, error) {
	var out []dto.ActiveSessionOutput
	for _, subject := range i.store.List() {
		if active, ok := subject.ActiveSession(); ok {
			out = append(out, dto.ActiveSessionOutput{Subject: subject.Name, StartedAt: active.Start})
		}
	}
	if len(out) == 0 {
		return nil, apperrors.ErrNoActiveSession
	}
	return out, nil
}

// Export returns the subject list in the persisted layout, indented.
func (i *Interactor) Export(context.Context) ([]byte, error) {
	payload, err := json.MarshalIndent(i.store.List(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return payload, nil
}

// Import replaces every subject with the payload, which must be a JSON array
// in the persisted layout.
func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error) {
	ctx = i.begin(ctx, "import", "")
	var subjects []domain.Subject
	if err := json.Unmarshal(input.Payload, &subjects); err != nil {
		return dto.ImportOutput{}, fmt.Errorf("%w: decode import: %v", apperrors.ErrInvalidInput, err)
	}
	if subjects == nil {
		return dto.ImportOutput{}, fmt.Errorf("%w: import payload must be a JSON array", apperrors.ErrInvalidInput)
	}
	issues, err := i.store.Replace(ctx, subjects)
	if err != nil {
		return dto.ImportOutput{}, fmt.Errorf("import: %w", err)
	}
	for _, issue := range issues {
		i.logger.Warn(ctx, "repaired imported subject", zap.String("issue", issue))
	}
	imported := len(i.store.List())
	i.logger.Info(ctx, "subjects imported", zap.Int("count", imported))
	return dto.ImportOutput{Imported: imported, Issues: issues}, nil
}

// Reload picks up writes made by other processes. It reports false when the
// stored list is what this process last read or wrote.
func (i *Interactor) Reload(ctx context.Context) (bool, error) {
	changed, err := i.store.Reload(ctx)
	if err != nil {
		return false, fmt.Errorf("reload subjects: %w", err)
	}
	if changed {
		i.logger.Info(ctx, "subjects reloaded after external change")
	}
	return changed, nil
}

func (i *Interactor) notify(ctx context.Context, summary, body string) {
	if i.notifier == nil {
		return
	}
	if err := i.notifier.Notify(ctx, summary, body); err != nil {
		i.logger.Warn(ctx, "desktop notification failed", zap.Error(err))
	}
}

func toOutput(subject domain.Subject) dto.SubjectOutput {
	out := dto.SubjectOutput{
		Name:          subject.Name,
		AllottedHours: subject.AllottedHours,
		StudiedHours:  subject.StudiedHours,
		SessionCount:  len(subject.Sessions),
		Progress:      progressOutput(subject),
	}
	if active, ok := subject.ActiveSession(); ok {
		out.Active = true
		out.ActiveSince = active.Start
	}
	return out
}

// progressOutput is zero for subjects whose progress is undefined; the store
// never holds such subjects after loading.
func progressOutput(subject domain.Subject) dto.ProgressOutput {
	progress, err := domain.ComputeProgress(subject)
	if err != nil {
		return dto.ProgressOutput{}
	}
	return dto.ProgressOutput{
		Percentage:     progress.Percentage,
		RemainingHours: progress.RemainingHours,
		Rounded:        progress.Rounded,
	}
}
