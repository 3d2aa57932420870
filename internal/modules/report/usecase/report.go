package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"studytrack/internal/modules/report/domain"
	"studytrack/internal/modules/report/dto"
	reportin "studytrack/internal/modules/report/port/in"
	reportout "studytrack/internal/modules/report/port/out"
	subjectdto "studytrack/internal/modules/subject/dto"
	subjectin "studytrack/internal/modules/subject/port/in"
	"studytrack/internal/platform/clock"
	"studytrack/internal/platform/logging"
	"studytrack/internal/platform/slug"
)

type Interactor struct {
	subjects subjectin.Usecase
	notes    reportout.NoteStore
	clock    clock.Clock
	logger   *logging.Logger
}

func NewInteractor(subjects subjectin.Usecase, notes reportout.NoteStore, clk clock.Clock, logger *logging.Logger) reportin.Usecase {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Interactor{subjects: subjects, notes: notes, clock: clk, logger: logger}
}

func (i *Interactor) ExportMarkdown(ctx context.Context) (dto.ExportMarkdownOutput, error) {
	list, err := i.subjects.ListSubjects(ctx)
	if err != nil {
		return dto.ExportMarkdownOutput{}, fmt.Errorf("list subjects: %w", err)
	}
	exportedAt := i.clock.Now()
	out := dto.ExportMarkdownOutput{Dir: i.notes.Dir(), Paths: make([]string, 0, len(list))}
	used := map[string]bool{}
	for _, summary := range list {
		detail, err := i.subjects.GetSubject(ctx, summary.Name)
		if err != nil {
			return out, fmt.Errorf("load subject %q: %w", summary.Name, err)
		}
		note := toNote(detail, uniqueSlug(used, summary.Name), exportedAt)
		path, err := i.notes.Save(ctx, note)
		if err != nil {
			return out, fmt.Errorf("export subject %q: %w", summary.Name, err)
		}
		i.logger.Debug(logging.WithSubject(ctx, summary.Name), "subject note written", zap.String("path", path))
		out.Paths = append(out.Paths, path)
	}
	i.logger.Info(ctx, "markdown export finished", zap.Int("notes", len(out.Paths)), zap.String("dir", out.Dir))
	return out, nil
}

// uniqueSlug suffixes names that fold to the same slug ("Math!" and "Math?").
func uniqueSlug(used map[string]bool, name string) string {
	base := slug.Make(name)
	candidate := base
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

func toNote(detail subjectdto.SubjectDetailOutput, noteSlug string, exportedAt time.Time) domain.SubjectNote {
	sessions := make([]domain.SessionLine, 0, len(detail.Sessions))
	for _, session := range detail.Sessions {
		sessions = append(sessions, domain.SessionLine{Start: session.Start, End: session.End, Hours: session.Hours})
	}
	return domain.SubjectNote{
		Slug:           noteSlug,
		Name:           detail.Name,
		AllottedHours:  detail.AllottedHours,
		StudiedHours:   detail.StudiedHours,
		Percentage:     detail.Progress.Percentage,
		RemainingHours: detail.Progress.RemainingHours,
		Active:         detail.Active,
		ExportedAt:     exportedAt,
		Sessions:       sessions,
	}
}
