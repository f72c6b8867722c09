package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/itsmostafa/scriptfeed/internal/loader"
	"github.com/itsmostafa/scriptfeed/internal/output"
	"github.com/itsmostafa/scriptfeed/internal/repl"
	"github.com/itsmostafa/scriptfeed/internal/watch"
	"github.com/spf13/cobra"
)

var interactive bool
var watchEnabled bool
var continueOnError bool
var maxLine int
var outFile string
var unitTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Load and run a script file",
	Long: `Load a script file, turning it into self-contained statements, and run each
one on the engine in order. The load stops at the first failing statement
unless --continue-on-error is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		if interactive && watchEnabled {
			return errors.New("--interactive and --watch cannot be combined")
		}
		if err := applyRunFlags(cmd); err != nil {
			return err
		}

		if watchEnabled {
			return watch.Watch(cmd.Context(), path, cfg.Watch.Debounce.Duration, logger, func(ctx context.Context) error {
				return runScript(ctx, cmd, path, false)
			})
		}

		return runScript(cmd.Context(), cmd, path, interactive)
	},
}

func applyRunFlags(cmd *cobra.Command) error {
	if cmd.Flags().Changed("max-line") {
		cfg.MaxLineLength = maxLine
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputFile = outFile
	}
	if cmd.Flags().Changed("timeout") {
		cfg.UnitTimeout.Duration = unitTimeout
	}
	return cfg.Validate()
}

// runScript loads path on a fresh engine. With withREPL the session stays
// open for interactive input afterwards, even when the load failed.
func runScript(ctx context.Context, cmd *cobra.Command, path string, withREPL bool) error {
	out := cmd.OutOrStdout()

	s, err := newSession(out, cfg.OutputFile)
	if err != nil {
		return err
	}
	defer s.Close()

	output.FormatLoadStart(out, path)
	l := loader.New(s.eng, loaderOptions(out, continueOnError))
	report, loadErr := l.LoadFile(ctx, path)
	if report != nil {
		output.FormatLoadSummary(out, report.Lines, report.Units, len(report.Failures))
	}

	if !withREPL {
		return loadErr
	}

	// the failure was already reported; keep the session for inspection
	return repl.New(s.eng, replOptions(cmd.InOrStdin(), out)).Run(ctx)
}

func init() {
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start an interactive session after the script runs")
	runCmd.Flags().BoolVarP(&watchEnabled, "watch", "w", false, "Re-run the script whenever it changes")
	runCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep running after a statement fails")
	runCmd.Flags().IntVar(&maxLine, "max-line", 0, "Maximum line length in bytes, terminator included (default from config)")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "File that emit() writes to")
	runCmd.Flags().DurationVar(&unitTimeout, "timeout", 0, "Time limit for each statement (0 = none)")

	rootCmd.AddCommand(runCmd)
}
