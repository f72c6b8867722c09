package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/scriptfeed/internal/engine"
	"github.com/itsmostafa/scriptfeed/internal/preprocess"
	"github.com/itsmostafa/scriptfeed/internal/source"
)

// recordingEngine remembers every unit and rejects the ones listed in fail.
type recordingEngine struct {
	units []string
	fail  map[string]bool
}

func (e *recordingEngine) Name() string { return "recording" }

func (e *recordingEngine) Execute(_ context.Context, unit string) error {
	e.units = append(e.units, unit)
	if e.fail[unit] {
		return &engine.ScriptError{Kind: "syntax", Message: "unexpected end of input"}
	}
	return nil
}

func (e *recordingEngine) Evaluate(context.Context, string) (string, error) {
	return "", nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoader(eng engine.Engine, opts Options) *Loader {
	opts.Logger = quietLogger()
	return New(eng, opts)
}

func TestLoad_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "function over three lines",
			input: "function myfunc(x, y) {\n  return x + y;\n}\n",
			want:  []string{"function myfunc(x, y) {   return x + y; }"},
		},
		{
			name:  "block comment suppressed",
			input: "var a = 1; /** ignore this\nand this too\n*/ var b = 2;",
			want:  []string{"var a = 1; ", " var b = 2;"},
		},
		{
			name:  "mixed",
			input: "var a = 1;\n/**\n * docs\n */\nfunction f(x) {\n  return [\n    x,\n  ];\n}\nprint(f(a));\n",
			want:  []string{"var a = 1;", "function f(x) {   return [     x,   ]; }", "print(f(a));"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &recordingEngine{}
			report, err := newTestLoader(eng, Options{}).Load(context.Background(), strings.NewReader(tt.input), "test.js")
			require.NoError(t, err)
			assert.Equal(t, tt.want, eng.units)
			assert.Equal(t, len(tt.want), report.Units)
			assert.NotEmpty(t, report.SessionID)
		})
	}
}

func TestLoad_ExecutionFailureAborts(t *testing.T) {
	eng := &recordingEngine{fail: map[string]bool{"foo(": true}}
	var diag bytes.Buffer
	l := newTestLoader(eng, Options{Diagnostics: &diag})

	report, err := l.Load(context.Background(), strings.NewReader("var a = 1;\nfoo(\nvar b = 2;\n"), "bad.js")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "foo(", execErr.Unit.Text)
	assert.Equal(t, 2, execErr.Unit.StartLine)

	var scriptErr *engine.ScriptError
	assert.True(t, errors.As(err, &scriptErr))

	// nothing after the failing unit runs
	assert.Equal(t, []string{"var a = 1;", "foo("}, eng.units)
	assert.Len(t, report.Failures, 1)
	assert.Contains(t, diag.String(), "foo(")
	assert.Contains(t, diag.String(), "Current line (2):")
}

func TestLoad_ContinueOnError(t *testing.T) {
	eng := &recordingEngine{fail: map[string]bool{"foo(": true, "bar(": true}}
	l := newTestLoader(eng, Options{ContinueOnError: true})

	report, err := l.Load(context.Background(), strings.NewReader("foo(\nok();\nbar(\n"), "bad.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 unit(s) failed")
	assert.Equal(t, []string{"foo(", "ok();", "bar("}, eng.units)
	assert.Len(t, report.Failures, 2)
	assert.Equal(t, 3, report.Units)
}

func TestLoad_OverlongLine(t *testing.T) {
	eng := &recordingEngine{}
	var diag bytes.Buffer
	l := newTestLoader(eng, Options{MaxLineLength: 32, Diagnostics: &diag})

	input := "ok();\n" + strings.Repeat("x", 32)
	_, err := l.Load(context.Background(), strings.NewReader(input), "long.js")

	var overlong *source.OverlongLineError
	require.True(t, errors.As(err, &overlong), "got %v", err)
	assert.Equal(t, 2, overlong.Line)
	assert.Equal(t, []string{"ok();"}, eng.units)
	assert.Contains(t, diag.String(), "line 2")
}

func TestLoad_UnterminatedBlock(t *testing.T) {
	eng := &recordingEngine{}
	var diag bytes.Buffer
	l := newTestLoader(eng, Options{Diagnostics: &diag})

	_, err := l.Load(context.Background(), strings.NewReader("function f() {\n  return 1;\n"), "open.js")

	var unterminated *preprocess.UnterminatedBlockError
	require.True(t, errors.As(err, &unterminated), "got %v", err)
	assert.Equal(t, 1, unterminated.StartLine)
	assert.Empty(t, eng.units)
	assert.Contains(t, diag.String(), "function f() {")
}

func TestLoad_UnbalancedCloser(t *testing.T) {
	eng := &recordingEngine{}
	_, err := newTestLoader(eng, Options{}).Load(context.Background(), strings.NewReader("a();\n}\nb();\n"), "x.js")

	var unbalanced *preprocess.UnbalancedError
	require.True(t, errors.As(err, &unbalanced), "got %v", err)
	assert.Equal(t, 2, unbalanced.Line)
	assert.Equal(t, []string{"a();"}, eng.units)
}

func TestLoad_CustomCommentMarkers(t *testing.T) {
	eng := &recordingEngine{}
	l := newTestLoader(eng, Options{CommentStart: "/*", CommentEnd: "*/"})

	_, err := l.Load(context.Background(), strings.NewReader("/* header\n*/\nrun();\n"), "c.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"run();"}, eng.units)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := &recordingEngine{}
	_, err := newTestLoader(eng, Options{}).Load(ctx, strings.NewReader("a();\n"), "x.js")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, eng.units)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte("var a = 1;\n"), 0644))

	eng := &recordingEngine{}
	report, err := newTestLoader(eng, Options{}).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Lines)
	assert.Equal(t, []string{"var a = 1;"}, eng.units)

	_, err = newTestLoader(eng, Options{}).LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCheck(t *testing.T) {
	eng := &recordingEngine{}
	var got []preprocess.Unit
	report, err := newTestLoader(eng, Options{}).Check(context.Background(),
		strings.NewReader("a();\nif (x) {\n  b();\n}\n"), "check.js",
		func(u preprocess.Unit) error {
			got = append(got, u)
			return nil
		})
	require.NoError(t, err)

	assert.Empty(t, eng.units)
	assert.Equal(t, 2, report.Units)
	require.Len(t, got, 2)
	assert.Equal(t, preprocess.Unit{Text: "if (x) {   b(); }", StartLine: 2, EndLine: 4}, got[1])
}

func TestLoad_Goja(t *testing.T) {
	var out bytes.Buffer
	eng, err := engine.NewGoja(engine.Options{Output: &out})
	require.NoError(t, err)

	script := strings.Join([]string{
		"/** add two numbers",
		" */",
		"function myfunc(x, y) {",
		"  return x + y;",
		"}",
		"var xs = [",
		"  myfunc(1, 2),",
		"  myfunc(3, 4)",
		"];",
		"print(xs.join(','));",
	}, "\n")

	_, err = newTestLoader(eng, Options{}).Load(context.Background(), strings.NewReader(script), "goja.js")
	require.NoError(t, err)
	assert.Equal(t, "> 3,7\n", out.String())
}

func TestLoad_GojaFailureHaltsFile(t *testing.T) {
	var out bytes.Buffer
	eng, err := engine.NewGoja(engine.Options{Output: &out})
	require.NoError(t, err)

	_, err = newTestLoader(eng, Options{}).Load(context.Background(),
		strings.NewReader("print('before');\nfoo(\nprint('after');\n"), "bad.js")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "foo(", execErr.Unit.Text)
	assert.Equal(t, "> before\n", out.String())
}
