// Package buffer implements the append-only scratch buffer used to
// accumulate multi-line blocks before they are handed to the engine.
package buffer

import (
	"errors"
	"fmt"
	"math"
)

// ErrExhausted is returned when the buffer cannot grow any further.
var ErrExhausted = errors.New("buffer exhausted")

// ExhaustedError reports a growth request that exceeded the buffer limit.
type ExhaustedError struct {
	Requested int
	Limit     int
}

func (e *ExhaustedError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("buffer exhausted: need %d bytes, limit is %d", e.Requested, e.Limit)
	}
	return fmt.Sprintf("buffer exhausted: cannot allocate %d bytes", e.Requested)
}

func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

// Buffer is a growable byte buffer. Capacity starts at the length of the
// first append plus one and then grows by cap*2+1 until the content fits.
// Clear keeps the storage so later blocks reuse it.
type Buffer struct {
	data     []byte
	size     int
	prevCap  int
	limit    int
	reallocs int
}

// New returns an empty buffer. A positive limit caps the capacity the
// buffer may grow to; zero means unbounded.
func New(limit int) *Buffer {
	return &Buffer{limit: limit}
}

// Append copies p to the end of the buffer.
func (b *Buffer) Append(p []byte) error {
	if b == nil || len(p) == 0 {
		return nil
	}

	need := b.size + len(p)
	if need < b.size {
		return &ExhaustedError{Requested: math.MaxInt, Limit: b.limit}
	}
	if err := b.Reserve(need); err != nil {
		return err
	}

	copy(b.data[b.size:], p)
	b.size = need
	return nil
}

// AppendString is Append for strings.
func (b *Buffer) AppendString(s string) error {
	if b == nil || s == "" {
		return nil
	}
	return b.Append([]byte(s))
}

// Reserve makes sure the buffer can hold n bytes without growing again.
func (b *Buffer) Reserve(n int) error {
	capacity := len(b.data)
	b.prevCap = capacity

	if capacity >= n {
		return nil
	}

	if capacity == 0 {
		// first allocation sizes to the incoming content
		capacity = n - b.size + 1
	}
	for capacity < n {
		if capacity > (math.MaxInt-1)/2 {
			return &ExhaustedError{Requested: n, Limit: b.limit}
		}
		capacity = capacity*2 + 1
	}

	if b.limit > 0 && capacity > b.limit {
		if n > b.limit {
			return &ExhaustedError{Requested: n, Limit: b.limit}
		}
		capacity = b.limit
	}

	grown := make([]byte, capacity)
	copy(grown, b.data[:b.size])
	if b.prevCap > 0 {
		b.reallocs++
	}
	b.data = grown
	return nil
}

// Clear zeroes the live content and resets the size. Capacity is retained.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	clear(b.data[:b.size])
	b.size = 0
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int { return b.size }

// Cap returns the allocated capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// PrevCap returns the capacity before the most recent growth check.
func (b *Buffer) PrevCap() int { return b.prevCap }

// Reallocs counts how many times existing storage had to be replaced.
// The initial allocation is not counted.
func (b *Buffer) Reallocs() int { return b.reallocs }

// Bytes returns the live content. The slice is only valid until the next
// Append or Clear.
func (b *Buffer) Bytes() []byte { return b.data[:b.size] }

// String returns a copy of the live content.
func (b *Buffer) String() string {
	if b == nil {
		return ""
	}
	return string(b.data[:b.size])
}
