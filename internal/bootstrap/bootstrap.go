package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	reportinadapter "studytrack/internal/modules/report/adapter/in"
	reportoutadapter "studytrack/internal/modules/report/adapter/out"
	reportusecase "studytrack/internal/modules/report/usecase"
	subjectinadapter "studytrack/internal/modules/subject/adapter/in"
	subjectoutadapter "studytrack/internal/modules/subject/adapter/out"
	subjectin "studytrack/internal/modules/subject/port/in"
	subjectout "studytrack/internal/modules/subject/port/out"
	subjectservice "studytrack/internal/modules/subject/service"
	subjectusecase "studytrack/internal/modules/subject/usecase"
	"studytrack/internal/platform/clock"
	"studytrack/internal/platform/config"
	"studytrack/internal/platform/id"
	"studytrack/internal/platform/logging"
	uiapp "studytrack/internal/ui/app"
)

type App struct {
	SubjectCLI subjectinadapter.CLIHandler
	SubjectTUI subjectinadapter.TUIHandler
	Logger     *logging.Logger

	subjects subjectin.Usecase
	clock    clock.Clock
	logger   *logging.Logger
	watcher  subjectout.ChangeWatcher
	closers  []io.Closer
}

// New wires the application for cfg. Callers own the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	app := &App{Logger: logger, logger: logger, clock: clock.SystemClock{}}
	app.closers = append(app.closers, logger)

	blobs, watcher, closer, err := newBlobStore(cfg, app.clock)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	app.watcher = watcher

	store, err := subjectservice.NewSubjectStore(ctx, app.clock, blobs, cfg.Storage.Key, logger.Named("store"))
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("load subjects: %w", err)
	}

	var notifier subjectout.Notifier = subjectoutadapter.NoopNotifier{}
	if cfg.Notify.Desktop {
		notifier = subjectoutadapter.NewDBusNotifier()
	}

	app.subjects = subjectusecase.NewInteractor(store, notifier, id.UUID{}, logger.Named("subject"))
	app.SubjectCLI = subjectinadapter.NewCLIHandler(app.subjects)
	app.SubjectTUI = subjectinadapter.NewTUIHandler(app.subjects)

	logger.Debug(ctx, "application wired",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("desktop_notifications", cfg.Notify.Desktop))
	return app, nil
}

func newBlobStore(cfg config.Config, clk clock.Clock) (subjectout.BlobStore, subjectout.ChangeWatcher, io.Closer, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := subjectoutadapter.NewSQLiteBlobStore(cfg.DBPath, clk)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil, store, nil
	case config.BackendMemory:
		return subjectoutadapter.NewMemoryBlobStore(), nil, nil, nil
	default:
		store := subjectoutadapter.NewFileBlobStore(cfg.DataDir)
		return store, subjectoutadapter.NewFileChangeWatcher(store.Path(cfg.Storage.Key)), nil, nil
	}
}

// ReportCLI builds the markdown exporter rooted at dir.
func (a *App) ReportCLI(dir string) reportinadapter.CLIHandler {
	notes := reportoutadapter.NewVaultNoteStore(dir)
	return reportinadapter.NewCLIHandler(reportusecase.NewInteractor(a.subjects, notes, a.clock, a.logger.Named("report")))
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunTUI blocks until the user quits. With the file backend, writes from other
// processes reload the store and refresh the open views.
func RunTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := uiapp.NewModel(app.SubjectTUI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if app.watcher != nil {
		go func() {
			err := app.watcher.Watch(ctx, func() {
				changed, err := app.SubjectTUI.Reload(ctx)
				if err != nil {
					app.logger.Warn(ctx, "reload after external change failed", zap.Error(err))
					return
				}
				// Events caused by this process's own saves leave the list unchanged.
				if changed {
					program.Send(uiapp.ExternalChangeMsg{})
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Warn(ctx, "subject file watcher stopped", zap.Error(err))
			}
		}()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
