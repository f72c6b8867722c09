package preprocess

import "strings"

// Default block comment markers.
const (
	DefaultCommentStart = "/**"
	DefaultCommentEnd   = "*/"
)

// CommentFilter removes block comments from a stream of lines. Comment
// mode carries over from one line to the next.
type CommentFilter struct {
	start     string
	end       string
	inComment bool
}

// NewCommentFilter returns a filter for the given markers. Empty markers
// fall back to the defaults.
func NewCommentFilter(start, end string) *CommentFilter {
	if start == "" {
		start = DefaultCommentStart
	}
	if end == "" {
		end = DefaultCommentEnd
	}
	return &CommentFilter{start: start, end: end}
}

// InComment reports whether the filter is inside a block comment.
func (f *CommentFilter) InComment() bool { return f.inComment }

// Reset leaves comment mode.
func (f *CommentFilter) Reset() { f.inComment = false }

// Filter returns what is left of text once commented spans are removed.
// A start marker drops the rest of the line and enters comment mode; an end
// marker leaves it and the text after the marker is kept. Markers are
// handled left to right, so a comment opened and closed on one line only
// removes the span between them. keep is false when the whole line was
// inside a comment and nothing should be forwarded.
func (f *CommentFilter) Filter(text string) (out string, keep bool) {
	if !f.inComment && !strings.Contains(text, f.start) {
		return text, true
	}

	var b strings.Builder
	rest := text
	for {
		if f.inComment {
			i := strings.Index(rest, f.end)
			if i < 0 {
				break
			}
			f.inComment = false
			rest = rest[i+len(f.end):]
			continue
		}

		i := strings.Index(rest, f.start)
		if i < 0 {
			if rest != "" {
				b.WriteString(rest)
				keep = true
			}
			break
		}
		if i > 0 {
			b.WriteString(rest[:i])
			keep = true
		}
		f.inComment = true
		rest = rest[i+len(f.start):]
	}

	return b.String(), keep
}
