package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"
)

// maxDumpDepth limits how far dump() descends into nested objects.
const maxDumpDepth = 4

// setupNatives registers the host functions scripts can call.
func (g *Goja) setupNatives() error {
	vm := g.vm

	// print(text) writes "> text"
	printFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		fmt.Fprintf(g.opts.Output, "> %s\n", strings.Join(args, " "))
		return goja.Undefined()
	}
	if err := g.set("print", printFunc); err != nil {
		return err
	}

	console := vm.NewObject()
	if err := console.Set("log", printFunc); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	if err := g.set("console", console); err != nil {
		return err
	}

	// dump() writes the global symbol table
	dumpFunc := func(call goja.FunctionCall) goja.Value {
		out, err := g.Dump()
		if err != nil {
			panic(vm.NewGoError(err))
		}
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			fmt.Fprintf(g.opts.Output, ">  %s\n", line)
		}
		return goja.Undefined()
	}
	if err := g.set("dump", dumpFunc); err != nil {
		return err
	}

	// emit(text) appends a line to the side output file
	emitFunc := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("emit requires 1 argument: text"))
		}
		if g.opts.SideOutput == nil {
			panic(vm.NewGoError(errors.New("emit: no output file configured")))
		}
		if _, err := fmt.Fprintln(g.opts.SideOutput, call.Arguments[0].String()); err != nil {
			panic(vm.NewGoError(fmt.Errorf("emit: %w", err)))
		}
		return goja.Undefined()
	}
	return g.set("emit", emitFunc)
}

func (g *Goja) set(name string, value any) error {
	if err := g.vm.Set(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	g.natives[name] = true
	return nil
}

// Dump renders the script-defined globals as YAML. Functions are shown as
// "function" and host natives are left out.
func (g *Goja) Dump() (string, error) {
	global := g.vm.GlobalObject()
	keys := global.Keys()
	sort.Strings(keys)

	table := make(map[string]any, len(keys))
	for _, k := range keys {
		if g.natives[k] {
			continue
		}
		table[k] = snapshot(global.Get(k), 0)
	}
	if len(table) == 0 {
		return "{}\n", nil
	}

	data, err := yaml.Marshal(table)
	if err != nil {
		return "", fmt.Errorf("failed to marshal symbol table: %w", err)
	}
	return string(data), nil
}

func snapshot(v goja.Value, depth int) any {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return nil
	}
	if _, ok := goja.AssertFunction(v); ok {
		return "function"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if depth >= maxDumpDepth {
		return "[object " + obj.ClassName() + "]"
	}

	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		items := make([]any, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, snapshot(obj.Get(strconv.Itoa(i)), depth+1))
		}
		return items
	}

	fields := make(map[string]any)
	for _, k := range obj.Keys() {
		fields[k] = snapshot(obj.Get(k), depth+1)
	}
	return fields
}
