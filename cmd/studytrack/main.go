package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studytrack/internal/bootstrap"
	subjectdto "studytrack/internal/modules/subject/dto"
	"studytrack/internal/platform/config"
	apperrors "studytrack/internal/platform/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir    string
	configPath string
	ephemeral  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "studytrack",
		Short:         "Track study time against per-subject goals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", config.DefaultDataDir(), "data directory")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data>/config.yaml)")
	root.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep subjects in memory only")

	root.AddCommand(newSubjectCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newProgressCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.dataDir, flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}
	return cfg, nil
}

// withApp wires the application, runs fn and releases it.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *bootstrap.App) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(ctx, app)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the studytrack terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Log.File = cfg.TUILogFile()
			app, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(cmd.Context(), app)
		},
	}
}

func newSubjectCmd(flags *globalFlags) *cobra.Command {
	subject := &cobra.Command{Use: "subject", Short: "Manage subjects"}

	var hours float64
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subject with an hour goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Add(ctx, strings.Join(args, " "), hours)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%.2f h)\n", out.Name, out.AllottedHours)
				return nil
			})
		},
	}
	addCmd.Flags().Float64Var(&hours, "hours", 0, "allotted hours (must be > 0)")
	_ = addCmd.MarkFlagRequired("hours")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				subjects, err := app.SubjectCLI.List(ctx)
				if err != nil {
					return err
				}
				if len(subjects) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no subjects")
					return nil
				}
				for _, s := range subjects {
					printSummary(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a subject and its sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				detail, err := app.SubjectCLI.Show(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printSummary(w, detail.SubjectOutput)
				for i, s := range detail.Sessions {
					if s.End == nil {
						_, _ = fmt.Fprintf(w, "  %d. %s - running\n", i+1, s.Start.Local().Format(time.RFC3339))
						continue
					}
					_, _ = fmt.Fprintf(w, "  %d. %s - %s  %.2f h\n", i+1,
						s.Start.Local().Format(time.RFC3339), s.End.Local().Format(time.RFC3339), s.Hours)
				}
				return nil
			})
		},
	}

	var resetYes bool
	resetCmd := &cobra.Command{
		Use:   "reset <name>",
		Short: "Clear studied hours and sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if !confirm(cmd, fmt.Sprintf("Reset %s?", name), resetYes) {
				return errAborted
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.SubjectCLI.Reset(ctx, name); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", name)
				return nil
			})
		},
	}
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "skip confirmation")

	var removeYes bool
	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if !confirm(cmd, fmt.Sprintf("Remove %s?", name), removeYes) {
				return errAborted
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Remove(ctx, name)
				if err != nil {
					return err
				}
				if out.Removed == 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no subject named %s\n", out.Subject)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", out.Subject)
				return nil
			})
		},
	}
	removeCmd.Flags().BoolVar(&removeYes, "yes", false, "skip confirmation")

	recomputeCmd := &cobra.Command{
		Use:   "recompute <name>",
		Short: "Rebuild studied hours from closed sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Recompute(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: studied %.2f h\n", out.Name, out.StudiedHours)
				return nil
			})
		},
	}

	subject.AddCommand(addCmd, listCmd, showCmd, resetCmd, removeCmd, recomputeCmd)
	return subject
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Study session lifecycle"}

	session.AddCommand(&cobra.Command{
		Use:   "start <name>",
		Short: "Start studying a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Start(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started studying %s at %s\n", out.Subject, out.StartedAt.Local().Format("15:04"))
				return nil
			})
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "stop <name>",
		Short: "Stop studying a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Stop(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stopped studying %s. Studied for %.2f hours.\n", out.Subject, out.ElapsedHours)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "progress=%d%% studied=%.2f remaining=%.2f\n",
					out.Progress.Rounded, out.StudiedHours, out.Progress.RemainingHours)
				return nil
			})
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show running sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				active, err := app.SubjectCLI.Active(ctx)
				if errors.Is(err, apperrors.ErrNoActiveSession) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return nil
				}
				if err != nil {
					return err
				}
				for _, a := range active {
					elapsed := time.Since(a.StartedAt).Truncate(time.Second)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s since %s (%s)\n", a.Subject, a.StartedAt.Local().Format("15:04"), elapsed)
				}
				return nil
			})
		},
	})
	return session
}

func newProgressCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [name]",
		Short: "Show progress toward each subject's goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if len(args) > 0 {
					detail, err := app.SubjectCLI.Show(ctx, strings.Join(args, " "))
					if err != nil {
						return err
					}
					printProgress(cmd.OutOrStdout(), detail.SubjectOutput)
					return nil
				}
				subjects, err := app.SubjectCLI.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range subjects {
					printProgress(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	export := &cobra.Command{Use: "export", Short: "Export subjects"}

	var jsonOut string
	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Write subjects as JSON in the stored layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				payload, err := app.SubjectCLI.Export(ctx)
				if err != nil {
					return err
				}
				payload = append(payload, '\n')
				if jsonOut == "" || jsonOut == "-" {
					_, err = cmd.OutOrStdout().Write(payload)
					return err
				}
				if err := os.WriteFile(jsonOut, payload, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", jsonOut)
				return nil
			})
		},
	}
	jsonCmd.Flags().StringVar(&jsonOut, "out", "", "output file (default stdout)")

	var markdownOut string
	markdownCmd := &cobra.Command{
		Use:   "markdown",
		Short: "Write one markdown note per subject",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				dir := markdownOut
				if dir == "" {
					dir = flags.dataDir
				}
				out, err := app.ReportCLI(dir).ExportMarkdown(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d notes to %s\n", len(out.Paths), out.Dir)
				return nil
			})
		},
	}
	markdownCmd.Flags().StringVar(&markdownOut, "out", "", "notes root; notes go to <out>/subjects (default data dir)")

	export.AddCommand(jsonCmd, markdownCmd)
	return export
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all subjects with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" && !yes {
				return fmt.Errorf("--yes is required when importing from stdin")
			}
			payload, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if !confirm(cmd, "Replace all subjects?", yes) {
				return errAborted
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Import(ctx, payload)
				if err != nil {
					return err
				}
				for _, issue := range out.Issues {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "repaired: %s\n", issue)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d subjects\n", out.Imported)
				return nil
			})
		},
	}
	importCmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation")
	return importCmd
}

var errAborted = errors.New("aborted")

// confirm asks a y/N question on the command's input unless yes is set.
func confirm(cmd *cobra.Command, prompt string, yes bool) bool {
	if yes {
		return true
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return payload, nil
}

func printSummary(w io.Writer, s subjectdto.SubjectOutput) {
	marker := " "
	if s.Active {
		marker = "*"
	}
	_, _ = fmt.Fprintf(w, "%s %s  %.2f/%.2f h  %d%%  sessions=%d\n",
		marker, s.Name, s.StudiedHours, s.AllottedHours, s.Progress.Rounded, s.SessionCount)
}

func printProgress(w io.Writer, s subjectdto.SubjectOutput) {
	_, _ = fmt.Fprintf(w, "%s: %d%%  studied %.2f h  remaining %.2f h\n",
		s.Name, s.Progress.Rounded, s.StudiedHours, s.Progress.RemainingHours)
}
