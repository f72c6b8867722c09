package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.js")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeScript(t, "function add(a, b) {\n  return a + b;\n}\nprint(add(1, 2));\n")

	out, err := executeArgs(t, "run", path)
	if err != nil {
		t.Fatalf("run unexpected error: %v", err)
	}
	if !strings.Contains(out, "> 3") {
		t.Errorf("output missing script print: %q", out)
	}
	if !strings.Contains(out, "Units:") {
		t.Errorf("output missing summary: %q", out)
	}
}

func TestRunCommand_Failure(t *testing.T) {
	path := writeScript(t, "print('a');\nfoo(\nprint('b');\n")

	out, err := executeArgs(t, "run", path)
	if err == nil {
		t.Fatal("run expected error for malformed script")
	}
	if !strings.Contains(out, "Error Reading Script") {
		t.Errorf("output missing diagnostic: %q", out)
	}
	if strings.Contains(out, "> b") {
		t.Errorf("statement after failure ran: %q", out)
	}
}

func TestRunCommand_EmitToOutputFile(t *testing.T) {
	path := writeScript(t, "emit('G0 X0');\n")
	outPath := filepath.Join(t.TempDir(), "out.nc")

	if _, err := executeArgs(t, "run", "--out", outPath, path); err != nil {
		t.Fatalf("run unexpected error: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if string(data) != "G0 X0\n" {
		t.Errorf("output file = %q", string(data))
	}
}

func TestCheckCommand(t *testing.T) {
	path := writeScript(t, "a();\nif (x) {\n  b();\n}\n")

	out, err := executeArgs(t, "check", path)
	if err != nil {
		t.Fatalf("check unexpected error: %v", err)
	}
	if !strings.Contains(out, "if (x) {   b(); }") {
		t.Errorf("output missing joined unit: %q", out)
	}
	if !strings.Contains(out, "2-4") {
		t.Errorf("output missing line range: %q", out)
	}
}

func TestREPLCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader("print(6 * 7);\nquit();\n"))
	rootCmd.SetArgs([]string{"repl"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("repl unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "> 42") {
		t.Errorf("output = %q", out.String())
	}
}
