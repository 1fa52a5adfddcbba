package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/sparqlmd/internal/annotate"
	"github.com/roach88/sparqlmd/internal/graph"
	"github.com/roach88/sparqlmd/internal/query"
	"github.com/roach88/sparqlmd/internal/render"
)

func runAnnotate(cmd *cobra.Command, opts *AnnotateOptions, args []string) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	s, err := resolveSettings(cmd, opts, args)
	if err != nil {
		return err
	}
	logger.Debug("settings resolved",
		"targetdir", s.targetDir,
		"config", s.configPath,
		"mode", s.mode.String(),
		"replace", s.replace,
		"check", s.check,
		"watch", s.watch)

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	p := &pipeline{
		settings: s,
		logger:   logger,
		stdout:   cmd.OutOrStdout(),
		out:      &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}
	if s.watch {
		return p.watch(ctx)
	}
	return p.run(ctx)
}

// newLogger returns the text logger on w that every command uses. Each
// invocation is tagged with a fresh time-ordered run id.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler).With("run", runID())
}

func runID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// pipeline loads the graph and annotates every selected document.
type pipeline struct {
	settings *settings
	logger   *slog.Logger
	stdout   io.Writer
	out      *OutputFormatter

	// documents selected by the last run
	documents []string
}

// CheckReport lists the documents --check found out of date.
type CheckReport struct {
	Checked int      `json:"checked"`
	Changed []string `json:"changed"`
}

func (r CheckReport) String() string {
	if len(r.Changed) == 0 {
		return fmt.Sprintf("%d document(s) up to date", r.Checked)
	}
	var b strings.Builder
	for _, path := range r.Changed {
		fmt.Fprintf(&b, "out of date: %s\n", path)
	}
	fmt.Fprintf(&b, "%d of %d document(s) out of date", len(r.Changed), r.Checked)
	return b.String()
}

// run performs one full pass: select documents, load the graph, then
// process documents in order. A failing document does not stop the others.
func (p *pipeline) run(ctx context.Context) error {
	s := p.settings

	docs, err := expandDocuments(s.patterns, p.logger)
	if err != nil {
		return WrapExitError(ExitUsage, "invalid document pattern", err)
	}
	p.documents = docs
	if len(docs) == 0 {
		return NewExitError(ExitUsage, "no documents selected")
	}

	st, err := graph.Load(ctx, s.targetDir, graph.LoadOptions{
		Extensions:  s.extensions,
		SkipInvalid: s.skipInvalid,
		Prefixes:    s.prefixes,
		Logger:      p.logger,
	})
	if err != nil {
		if ctx.Err() != nil {
			return WrapExitError(ExitFailure, "interrupted", ctx.Err())
		}
		return WrapExitError(ExitUsage, "failed to load graph", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			p.logger.Error("error closing graph", "error", closeErr)
		}
	}()

	memo := query.NewMemo(query.NewEngine(st, p.logger))
	engine := annotate.NewEngine(memo, render.NewCompactor(st.Prefixes()), p.logger)

	var sink annotate.Sink = &annotate.PreviewSink{W: p.stdout}
	if s.replace {
		sink = &annotate.ReplaceSink{Logger: p.logger}
	}

	report := CheckReport{Changed: []string{}}
	var failed []string
	for _, path := range docs {
		var err error
		if s.check {
			var changed bool
			changed, err = annotate.Check(ctx, path, engine, s.mode)
			if changed {
				report.Changed = append(report.Changed, path)
			}
		} else {
			err = annotate.Process(ctx, path, engine, s.mode, sink)
		}

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return WrapExitError(ExitFailure, "interrupted", err)
			}
			p.logger.Error("document failed", "path", path, "error", err)
			failed = append(failed, path)
			continue
		}
		report.Checked++
	}

	p.logger.Info("run finished",
		"documents", len(docs),
		"failed", len(failed),
		"queries", memo.Len())

	if s.check {
		if err := p.reportCheck(report); err != nil {
			return err
		}
	}
	if len(failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) failed: %s", len(failed), strings.Join(failed, ", ")))
	}
	if s.check && len(report.Changed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) out of date", len(report.Changed)))
	}
	return nil
}

func (p *pipeline) reportCheck(report CheckReport) error {
	if len(report.Changed) == 0 {
		return p.out.Success(report)
	}
	return p.out.Failure(report, ErrCodeOutOfDate, fmt.Sprintf("%d document(s) out of date", len(report.Changed)))
}
