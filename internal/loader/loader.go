// Package loader feeds a script file through the preprocessor and hands
// each completed unit to the engine, in file order.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/itsmostafa/scriptfeed/internal/engine"
	"github.com/itsmostafa/scriptfeed/internal/output"
	"github.com/itsmostafa/scriptfeed/internal/preprocess"
	"github.com/itsmostafa/scriptfeed/internal/source"
)

// Options configures a Loader.
type Options struct {
	MaxLineLength int
	MaxBlockBytes int
	CommentStart  string
	CommentEnd    string

	// ContinueOnError keeps going after a unit fails instead of aborting
	// the load. Preprocessing errors always abort.
	ContinueOnError bool

	// Diagnostics receives a report for every failure. Nil disables it.
	Diagnostics io.Writer

	Logger *slog.Logger
}

// ExecutionError is a unit the engine rejected.
type ExecutionError struct {
	Unit    preprocess.Unit
	Pending string
	Err     error
}

func (e *ExecutionError) Error() string {
	loc := fmt.Sprintf("line %d", e.Unit.StartLine)
	if e.Unit.EndLine != e.Unit.StartLine {
		loc = fmt.Sprintf("lines %d-%d", e.Unit.StartLine, e.Unit.EndLine)
	}
	return fmt.Sprintf("%s: executing %q: %v", loc, e.Unit.Text, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Report summarizes one load.
type Report struct {
	SessionID string
	Lines     int
	Units     int
	Failures  []*ExecutionError
}

// Loader runs scripts against an engine.
type Loader struct {
	eng  engine.Engine
	opts Options
}

// New returns a Loader that executes units on eng. eng may be nil when the
// loader is only used for Check.
func New(eng engine.Engine, opts Options) *Loader {
	if opts.MaxLineLength == 0 {
		opts.MaxLineLength = source.DefaultMaxLen
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{eng: eng, opts: opts}
}

// LoadFile opens path and runs it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, f, path)
}

// Load runs the script read from r. name is used in logs and errors. The
// report is returned even when the load fails part way.
func (l *Loader) Load(ctx context.Context, r io.Reader, name string) (*Report, error) {
	report := &Report{SessionID: uuid.New().String()}
	logger := l.opts.Logger.With("session", report.SessionID, "script", name)
	logger.Info("evaluating script", "engine", l.eng.Name())

	err := l.walk(ctx, r, name, report, logger, func(unit preprocess.Unit, line source.Line, pending string) error {
		logger.Debug("dispatching unit", "start", unit.StartLine, "end", unit.EndLine, "bytes", len(unit.Text))
		report.Units++

		if err := l.eng.Execute(ctx, unit.Text); err != nil {
			execErr := &ExecutionError{Unit: unit, Pending: pending, Err: err}
			report.Failures = append(report.Failures, execErr)
			l.diagnose(err, line.Number, line.Text, unit.Text, pending)
			logger.Error("unit failed", "start", unit.StartLine, "error", err)

			if !l.opts.ContinueOnError {
				return fmt.Errorf("%s: %w", name, execErr)
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	logger.Info("script loaded", "lines", report.Lines, "units", report.Units, "failed", len(report.Failures))
	if len(report.Failures) > 0 {
		errs := make([]error, len(report.Failures))
		for i, f := range report.Failures {
			errs[i] = f
		}
		return report, fmt.Errorf("%s: %d unit(s) failed: %w", name, len(report.Failures), errors.Join(errs...))
	}
	return report, nil
}

// Check preprocesses r without executing anything, passing each unit to fn.
func (l *Loader) Check(ctx context.Context, r io.Reader, name string, fn func(preprocess.Unit) error) (*Report, error) {
	report := &Report{SessionID: uuid.New().String()}
	logger := l.opts.Logger.With("session", report.SessionID, "script", name)

	err := l.walk(ctx, r, name, report, logger, func(unit preprocess.Unit, _ source.Line, _ string) error {
		report.Units++
		return fn(unit)
	})
	return report, err
}

// walk is the dispatch loop: read a line, filter and accumulate it, and
// hand any completed unit to dispatch before reading the next line.
func (l *Loader) walk(ctx context.Context, r io.Reader, name string, report *Report, logger *slog.Logger,
	dispatch func(unit preprocess.Unit, line source.Line, pending string) error) error {

	src := source.NewReader(r, l.opts.MaxLineLength)
	pre := preprocess.New(preprocess.Options{
		CommentStart:  l.opts.CommentStart,
		CommentEnd:    l.opts.CommentEnd,
		MaxBlockBytes: l.opts.MaxBlockBytes,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.diagnose(err, src.LineNumber(), "", "", pre.Pending())
			logger.Error("reading script failed", "line", src.LineNumber(), "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		report.Lines = line.Number

		// capture the block before Feed flushes or resets it
		pendingBefore := pre.Pending()

		unit, ok, err := pre.Feed(line)
		if err != nil {
			l.diagnose(err, line.Number, line.Text, "", joinPending(pendingBefore, line.Text))
			logger.Error("preprocessing failed", "line", line.Number, "state", pre.State().String(), "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}
		if !ok {
			continue
		}

		if err := dispatch(unit, line, pendingBefore); err != nil {
			return err
		}
	}

	if err := pre.Finish(); err != nil {
		l.diagnose(err, report.Lines, "", "", pre.Pending())
		logger.Error("script ended inside a block", "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	if pre.InComment() {
		logger.Warn("script ended inside a block comment")
	}
	return nil
}

func (l *Loader) diagnose(err error, line int, text, unit, pending string) {
	if l.opts.Diagnostics == nil {
		return
	}
	output.FormatDiagnostic(l.opts.Diagnostics, output.Diagnostic{
		Err:     err,
		Line:    line,
		Text:    text,
		Unit:    unit,
		Pending: pending,
	})
}

func joinPending(pending, text string) string {
	if pending == "" {
		return text
	}
	return strings.TrimRight(pending, " ") + " " + text
}
