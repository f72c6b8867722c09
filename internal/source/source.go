// Package source reads a script one bounded line at a time.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxLen is the default line limit, terminator included.
const DefaultMaxLen = 2048

// Line is one line of input without its terminator.
type Line struct {
	// Number is the 1-based line number in the source.
	Number int
	// Text is the line content with the trailing "\n" or "\r\n" removed.
	Text string
	// Terminated is false only for a final line that ended at end of stream.
	Terminated bool
}

// OverlongLineError reports a line that does not fit in the maximum length.
type OverlongLineError struct {
	Line   int
	MaxLen int
}

func (e *OverlongLineError) Error() string {
	return fmt.Sprintf("script line %d exceeds buffer length (%d bytes)", e.Line, e.MaxLen)
}

// Reader pulls lines from a backing stream.
type Reader struct {
	r      *bufio.Reader
	maxLen int
	line   int
	buf    []byte
}

// NewReader returns a Reader over r. maxLen is the size of the line buffer
// including room for a terminating NUL, so the longest admissible line is
// maxLen-2 bytes of text plus "\n": with DefaultMaxLen a line of 2046 bytes
// and its terminator fits, while 2047 bytes and a terminator is overlong.
// Values below 2 fall back to DefaultMaxLen.
func NewReader(r io.Reader, maxLen int) *Reader {
	if maxLen < 2 {
		maxLen = DefaultMaxLen
	}
	return &Reader{
		r:      bufio.NewReader(r),
		maxLen: maxLen,
		buf:    make([]byte, 0, maxLen),
	}
}

// LineNumber returns the number of the last line returned.
func (s *Reader) LineNumber() int { return s.line }

// Next returns the next line. It returns io.EOF once the stream is drained
// and nothing was read. A line that fills maxLen-1 bytes without reaching a
// terminator yields an *OverlongLineError.
func (s *Reader) Next() (Line, error) {
	s.buf = s.buf[:0]
	limit := s.maxLen - 1

	for {
		c, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(s.buf) == 0 {
					return Line{}, io.EOF
				}
				s.line++
				return Line{Number: s.line, Text: trimCR(s.buf)}, nil
			}
			return Line{}, fmt.Errorf("reading line %d: %w", s.line+1, err)
		}

		if c == '\n' {
			s.line++
			return Line{Number: s.line, Text: trimCR(s.buf), Terminated: true}, nil
		}

		s.buf = append(s.buf, c)
		if len(s.buf) >= limit {
			// a terminator directly after a full buffer would not have fit either
			s.line++
			return Line{}, &OverlongLineError{Line: s.line, MaxLen: s.maxLen}
		}
	}
}

// SkipLine discards input up to and including the next line break. It is
// used to resynchronize after an overlong line.
func (s *Reader) SkipLine() error {
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

func trimCR(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return string(b)
}
