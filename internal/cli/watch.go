package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/habitat-rural/ovreport/internal/pipeline"
	"github.com/habitat-rural/ovreport/internal/report"
	"github.com/habitat-rural/ovreport/internal/specdef"
	"github.com/habitat-rural/ovreport/internal/validate"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Report   string
	Output   string
	Params   string
	SpecsDir string
	Once     bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch an inbox directory and generate when inputs are complete",
		Long: `Watch a directory for uploaded ledger exports. On every new or changed
file the directory contents are re-validated against the report's
requirements; once every required file is present, the report is generated.

Example:
  ovreport watch ./inbox --report suivi_paiements --out suivi.xlsx --once`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "report name (required)")
	cmd.Flags().StringVar(&opts.Output, "out", "", "output workbook path (required)")
	cmd.Flags().StringVar(&opts.Params, "params", "", "YAML file with template substitution values")
	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory with additional CUE report definitions")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "exit after the first successful generation")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions, dir string) error {
	reg, err := specdef.BuildRegistry(opts.SpecsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build report registry", err)
	}
	if !reg.Has(opts.Report) {
		_, err := reg.Get(opts.Report)
		return WrapExitError(ExitCommandError, "unknown report", err)
	}

	params, err := loadParams(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load params", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create watcher", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch directory", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for report %s. Press Ctrl-C to stop.\n", dir, opts.Report)

	// The directory may already be complete when the watch starts.
	if done, err := tryGenerate(ctx, cmd, opts, reg, params, dir); err != nil {
		return err
	} else if done && opts.Once {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			slog.Debug("inbox changed", "path", event.Name, "op", event.Op.String())
			done, err := tryGenerate(ctx, cmd, opts, reg, params, dir)
			if err != nil {
				return err
			}
			if done && opts.Once {
				return nil
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", watchErr)
		}
	}
}

// tryGenerate re-validates the directory contents and, when every
// requirement is satisfied, runs the pipeline. An incomplete inbox is not
// an error; a pipeline failure after validation is.
func tryGenerate(ctx context.Context, cmd *cobra.Command, opts *WatchOptions, reg *report.Registry, params map[string]string, dir string) (bool, error) {
	files, err := listFiles(dir)
	if err != nil {
		return false, WrapExitError(ExitCommandError, "failed to list directory", err)
	}

	if _, err := validate.Validate(reg, opts.Report, files); err != nil {
		if validate.IsUnsatisfied(err) {
			slog.Debug("inbox incomplete", "reason", err.Error())
			return false, nil
		}
		return false, WrapExitError(ExitCommandError, "validation failed", err)
	}

	summary, err := pipeline.Run(ctx, pipeline.Options{
		Registry:   reg,
		Report:     opts.Report,
		Files:      files,
		OutputPath: opts.Output,
		Params:     params,
	})
	if err != nil {
		return false, wrapPipelineError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), pipeline.DescribeRun(summary))
	return true, nil
}

// listFiles returns the regular files directly inside dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
