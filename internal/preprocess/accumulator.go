package preprocess

import (
	"fmt"
	"strings"

	"github.com/itsmostafa/scriptfeed/internal/buffer"
)

// State is the position of the preprocessor between lines.
type State int

const (
	StateNormal State = iota
	StateInComment
	StateInBraceBlock
	StateInBracketBlock
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateInComment:
		return "in-comment"
	case StateInBraceBlock:
		return "in-brace-block"
	case StateInBracketBlock:
		return "in-bracket-block"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var closerFor = map[byte]byte{'{': '}', '[': ']'}

// UnbalancedError reports a closing token with no matching opener.
type UnbalancedError struct {
	Line   int
	Column int
	Found  byte
	// Expected is the closer for the innermost open token, or 0 when
	// nothing was open.
	Expected byte
}

func (e *UnbalancedError) Error() string {
	if e.Expected == 0 {
		return fmt.Sprintf("line %d, column %d: unexpected %q with nothing open", e.Line, e.Column, e.Found)
	}
	return fmt.Sprintf("line %d, column %d: unexpected %q, expected %q", e.Line, e.Column, e.Found, e.Expected)
}

// UnterminatedBlockError reports a block still open at end of input.
type UnterminatedBlockError struct {
	StartLine int
	Depth     int
	Open      byte
}

func (e *UnterminatedBlockError) Error() string {
	return fmt.Sprintf("block opened with %q on line %d is not closed at end of input (depth %d)",
		e.Open, e.StartLine, e.Depth)
}

// Accumulator joins the lines of a brace or bracket block into one unit.
// Lines that open nothing, or close everything they open, pass straight
// through without touching the buffer.
type Accumulator struct {
	buf       *buffer.Buffer
	stack     []byte
	startLine int
}

// NewAccumulator returns an accumulator whose scratch buffer is capped at
// maxBlockBytes (zero for no cap).
func NewAccumulator(maxBlockBytes int) *Accumulator {
	return &Accumulator{buf: buffer.New(maxBlockBytes)}
}

// State reports whether a block is open and of which kind.
func (a *Accumulator) State() State {
	if len(a.stack) == 0 {
		return StateNormal
	}
	if a.stack[0] == '[' {
		return StateInBracketBlock
	}
	return StateInBraceBlock
}

// Depth is the number of tokens currently open.
func (a *Accumulator) Depth() int { return len(a.stack) }

// StartLine is the line that opened the current block, or 0.
func (a *Accumulator) StartLine() int { return a.startLine }

// Pending returns the block text collected so far.
func (a *Accumulator) Pending() string { return a.buf.String() }

// Reset drops any partial block. The buffer keeps its storage.
func (a *Accumulator) Reset() {
	a.buf.Clear()
	a.stack = a.stack[:0]
	a.startLine = 0
}

// Add feeds one comment-free line. When it completes a unit, the unit is
// returned with ready set; otherwise the line has been buffered.
func (a *Accumulator) Add(lineNo int, text string) (unit string, ready bool, err error) {
	wasOpen := len(a.stack) > 0

	code, err := a.scan(lineNo, text)
	if err != nil {
		a.Reset()
		return "", false, err
	}

	if !wasOpen && len(a.stack) == 0 {
		return text, true, nil
	}
	if !wasOpen {
		a.startLine = lineNo
	}

	if err := a.buf.AppendString(spaceBreaks(code)); err != nil {
		a.Reset()
		return "", false, fmt.Errorf("line %d: %w", lineNo, err)
	}

	if len(a.stack) > 0 {
		// the line break itself becomes a separator
		if err := a.buf.AppendString(" "); err != nil {
			a.Reset()
			return "", false, fmt.Errorf("line %d: %w", lineNo, err)
		}
		return "", false, nil
	}

	unit = a.buf.String()
	a.buf.Clear()
	a.startLine = 0
	return unit, true, nil
}

// Finish reports a block left open at end of input.
func (a *Accumulator) Finish() error {
	if len(a.stack) == 0 {
		return nil
	}
	return &UnterminatedBlockError{
		StartLine: a.startLine,
		Depth:     len(a.stack),
		Open:      a.stack[0],
	}
}

// scan updates the nesting stack for one line and returns the part of the
// line that belongs in a block. Tokens inside string, template and regex
// literals do not count and a "//" comment ends the code on the line.
func (a *Accumulator) scan(lineNo int, text string) (string, error) {
	var quote byte
	// last significant byte outside literals, 0 at line start
	var prev byte
	for i := 0; i < len(text); i++ {
		c := text[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(text) && text[i+1] == '/' {
				return text[:i], nil
			}
			if regexCanStart(prev) {
				i = skipRegex(text, i)
			}
		case '{', '[':
			a.stack = append(a.stack, c)
		case '}', ']':
			if len(a.stack) == 0 {
				return "", &UnbalancedError{Line: lineNo, Column: i + 1, Found: c}
			}
			want := closerFor[a.stack[len(a.stack)-1]]
			if c != want {
				return "", &UnbalancedError{Line: lineNo, Column: i + 1, Found: c, Expected: want}
			}
			a.stack = a.stack[:len(a.stack)-1]
		}
		prev = c
	}
	return text, nil
}

// regexCanStart reports whether a '/' after prev opens a regex literal
// rather than a division.
func regexCanStart(prev byte) bool {
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};", prev) >= 0
}

// skipRegex returns the index of the '/' closing the regex literal opened at
// start, or the last index of text when the literal does not close.
func skipRegex(text string, start int) int {
	inClass := false
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i
			}
		}
	}
	return len(text) - 1
}

func spaceBreaks(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
