package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Options configures a Goja engine.
type Options struct {
	// Output receives print() and dump() output. Defaults to os.Stdout.
	Output io.Writer

	// SideOutput receives emit() lines. emit() fails when it is nil.
	SideOutput io.Writer

	// Timeout bounds each Execute and Evaluate call. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration
}

// Goja executes JavaScript units in one long-lived goja runtime.
type Goja struct {
	vm      *goja.Runtime
	opts    Options
	natives map[string]bool
}

// NewGoja creates a runtime with the host natives registered.
func NewGoja(opts Options) (*Goja, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	g := &Goja{
		vm:      goja.New(),
		opts:    opts,
		natives: make(map[string]bool),
	}
	if err := g.setupNatives(); err != nil {
		return nil, fmt.Errorf("failed to setup natives: %w", err)
	}
	return g, nil
}

// Name returns "goja".
func (g *Goja) Name() string { return "goja" }

// Execute runs a unit in the shared runtime.
func (g *Goja) Execute(ctx context.Context, unit string) error {
	_, err := g.run(ctx, unit)
	return err
}

// Evaluate runs expr and returns the result's string form.
func (g *Goja) Evaluate(ctx context.Context, expr string) (string, error) {
	val, err := g.run(ctx, expr)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "undefined", nil
	}
	return val.String(), nil
}

func (g *Goja) run(ctx context.Context, code string) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	// Interrupt the VM if the context ends while the unit is running
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			g.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := g.vm.RunString(code)
	close(done)
	<-exited
	g.vm.ClearInterrupt()

	if err != nil {
		return nil, toScriptError(err)
	}
	return val, nil
}

func toScriptError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &ScriptError{
			Kind:    "interrupted",
			Message: fmt.Sprintf("execution interrupted: %v", interrupted.Value()),
			Err:     err,
		}
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return &ScriptError{Kind: "syntax", Message: syntax.Error(), Err: err}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		msg := exception.Error()
		kind := "runtime"
		if strings.HasPrefix(msg, "SyntaxError") {
			kind = "syntax"
		}
		return &ScriptError{Kind: kind, Message: msg, Err: err}
	}

	return &ScriptError{Kind: "runtime", Message: err.Error(), Err: err}
}
