package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/itsmostafa/scriptfeed/internal/config"
	"github.com/itsmostafa/scriptfeed/internal/engine"
	"github.com/itsmostafa/scriptfeed/internal/loader"
	"github.com/itsmostafa/scriptfeed/internal/repl"
)

// session bundles an engine with the side output file it writes to.
type session struct {
	eng  *engine.Goja
	side *os.File
}

// newSession creates a fresh engine. When outPath is set the side output
// file is created (truncating any previous content) for emit().
func newSession(out io.Writer, outPath string) (*session, error) {
	s := &session{}
	opts := engine.Options{
		Output:  out,
		Timeout: cfg.UnitTimeout.Duration,
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open output file: %w", err)
		}
		s.side = f
		opts.SideOutput = f
	}

	eng, err := engine.NewGoja(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.eng = eng
	return s, nil
}

// Close releases the side output file.
func (s *session) Close() error {
	if s.side == nil {
		return nil
	}
	err := s.side.Close()
	s.side = nil
	return err
}

func loaderOptions(diag io.Writer, continueOnError bool) loader.Options {
	return loader.Options{
		MaxLineLength:   cfg.MaxLineLength,
		MaxBlockBytes:   cfg.MaxBlockBytes,
		CommentStart:    cfg.Comments.Start,
		CommentEnd:      cfg.Comments.End,
		ContinueOnError: continueOnError || cfg.OnError == config.OnErrorContinue,
		Diagnostics:     diag,
		Logger:          logger,
	}
}

func replOptions(in io.Reader, out io.Writer) repl.Options {
	opts := repl.Options{
		In:                 in,
		Out:                out,
		Prompt:             cfg.REPL.Prompt,
		ContinuationPrompt: cfg.REPL.ContinuationPrompt,
		MaxLineLength:      cfg.MaxLineLength,
		MaxBlockBytes:      cfg.MaxBlockBytes,
		CommentStart:       cfg.Comments.Start,
		CommentEnd:         cfg.Comments.End,
		Logger:             logger,
	}
	if f, ok := in.(*os.File); ok {
		opts.ShowPrompts = repl.IsTerminal(f)
	}
	return opts
}
