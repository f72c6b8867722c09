package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormatDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	FormatDiagnostic(&buf, Diagnostic{
		Err:     errors.New("syntax error: unexpected end of input"),
		Line:    7,
		Text:    "foo(",
		Unit:    "foo(",
		Pending: "",
	})

	out := buf.String()
	for _, want := range []string{"Error Reading Script", "unexpected end of input", "Current line (7):", "foo(", "Current block:"} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostic missing %q:\n%s", want, out)
		}
	}
}

func TestFormatUnit(t *testing.T) {
	tests := []struct {
		start, end int
		want       string
	}{
		{3, 3, "      3 |"},
		{2, 4, "    2-4 |"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		FormatUnit(&buf, tt.start, tt.end, "x();")
		if !strings.Contains(buf.String(), tt.want) || !strings.Contains(buf.String(), "x();") {
			t.Errorf("FormatUnit(%d, %d) = %q, want it to contain %q", tt.start, tt.end, buf.String(), tt.want)
		}
	}
}

func TestFormatLoadSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatLoadSummary(&buf, 10, 4, 0)
	if !strings.Contains(buf.String(), "OK") {
		t.Errorf("summary = %q, want OK", buf.String())
	}

	buf.Reset()
	FormatLoadSummary(&buf, 10, 4, 2)
	if !strings.Contains(buf.String(), "2 FAILED") {
		t.Errorf("summary = %q, want failure count", buf.String())
	}
}
