// Package repl runs an interactive session against an engine. Input goes
// through the same preprocessing as script files, so blocks can be typed
// over several lines.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/itsmostafa/scriptfeed/internal/engine"
	"github.com/itsmostafa/scriptfeed/internal/output"
	"github.com/itsmostafa/scriptfeed/internal/preprocess"
	"github.com/itsmostafa/scriptfeed/internal/source"
)

const (
	// quitVar is checked before every prompt; quit() sets it to 1.
	quitVar = "lets_quit"

	setupScript = "var lets_quit = 0; function quit() { lets_quit = 1; }"

	banner = "Interactive mode... Type quit(); to exit, or print(...); to print something, or dump() to dump the symbol table!"
)

// Options configures a session.
type Options struct {
	In  io.Reader
	Out io.Writer

	// ShowPrompts prints the prompts; off when input is not a terminal.
	ShowPrompts        bool
	Prompt             string
	ContinuationPrompt string

	MaxLineLength int
	MaxBlockBytes int
	CommentStart  string
	CommentEnd    string

	Logger *slog.Logger
}

// REPL is an interactive session.
type REPL struct {
	eng  engine.Engine
	opts Options
}

// New returns a session on eng.
func New(eng engine.Engine, opts Options) *REPL {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &REPL{eng: eng, opts: opts}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run reads statements until quit() is called or input ends. Script errors
// are printed and the session carries on.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.eng.Execute(ctx, setupScript); err != nil {
		return fmt.Errorf("failed to set up session: %w", err)
	}
	output.FormatBanner(r.opts.Out, banner)

	src := source.NewReader(r.opts.In, r.opts.MaxLineLength)
	pre := preprocess.New(preprocess.Options{
		CommentStart:  r.opts.CommentStart,
		CommentEnd:    r.opts.CommentEnd,
		MaxBlockBytes: r.opts.MaxBlockBytes,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		quit, err := r.eng.Evaluate(ctx, quitVar)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", quitVar, err)
		}
		if quit != "0" {
			return nil
		}

		r.prompt(pre)

		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			if err := pre.Finish(); err != nil {
				output.FormatREPLError(r.opts.Out, err)
			}
			return nil
		}
		var overlong *source.OverlongLineError
		if errors.As(err, &overlong) {
			output.FormatREPLError(r.opts.Out, err)
			if err := src.SkipLine(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		unit, ok, err := pre.Feed(line)
		if err != nil {
			output.FormatREPLError(r.opts.Out, err)
			pre.Reset()
			continue
		}
		if !ok {
			continue
		}

		if err := r.eng.Execute(ctx, unit.Text); err != nil {
			r.opts.Logger.Debug("statement failed", "line", line.Number, "error", err)
			output.FormatREPLError(r.opts.Out, err)
		}
	}
}

func (r *REPL) prompt(pre *preprocess.Preprocessor) {
	if !r.opts.ShowPrompts {
		return
	}
	p := r.opts.Prompt
	if pre.State() != preprocess.StateNormal {
		p = r.opts.ContinuationPrompt
	}
	fmt.Fprint(r.opts.Out, p)
}
