// Package preprocess turns script lines into self-contained units the
// engine can run one at a time: block comments are dropped and brace or
// bracket blocks spanning several lines are joined into a single line.
package preprocess

import (
	"strings"

	"github.com/itsmostafa/scriptfeed/internal/source"
)

// Unit is one piece of text handed to the engine.
type Unit struct {
	Text      string
	StartLine int
	EndLine   int
}

// Options configures a Preprocessor.
type Options struct {
	CommentStart  string
	CommentEnd    string
	MaxBlockBytes int
}

// Preprocessor runs each line through the comment filter and then the
// block accumulator.
type Preprocessor struct {
	comments *CommentFilter
	acc      *Accumulator
}

// New returns a Preprocessor in the normal state.
func New(opts Options) *Preprocessor {
	return &Preprocessor{
		comments: NewCommentFilter(opts.CommentStart, opts.CommentEnd),
		acc:      NewAccumulator(opts.MaxBlockBytes),
	}
}

// Feed processes one line. ok is true when the line completed a unit.
// Blank units are never returned.
func (p *Preprocessor) Feed(line source.Line) (unit Unit, ok bool, err error) {
	text, keep := p.comments.Filter(line.Text)
	if !keep {
		return Unit{}, false, nil
	}
	if p.acc.Depth() == 0 && strings.TrimSpace(text) == "" {
		return Unit{}, false, nil
	}

	start := p.acc.StartLine()
	out, ready, err := p.acc.Add(line.Number, text)
	if err != nil || !ready {
		return Unit{}, false, err
	}
	if start == 0 {
		start = line.Number
	}
	if strings.TrimSpace(out) == "" {
		return Unit{}, false, nil
	}
	return Unit{Text: out, StartLine: start, EndLine: line.Number}, true, nil
}

// Finish is called at end of input. It fails when a block is still open.
func (p *Preprocessor) Finish() error {
	return p.acc.Finish()
}

// State reports the current position. An open block takes precedence over
// comment mode.
func (p *Preprocessor) State() State {
	if s := p.acc.State(); s != StateNormal {
		return s
	}
	if p.comments.InComment() {
		return StateInComment
	}
	return StateNormal
}

// InComment reports whether a block comment is still open.
func (p *Preprocessor) InComment() bool { return p.comments.InComment() }

// Depth is the nesting depth of the open block.
func (p *Preprocessor) Depth() int { return p.acc.Depth() }

// Pending returns the partially accumulated block.
func (p *Preprocessor) Pending() string { return p.acc.Pending() }

// Reset returns to the normal state, dropping any partial block.
func (p *Preprocessor) Reset() {
	p.comments.Reset()
	p.acc.Reset()
}
