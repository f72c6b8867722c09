package cmd

import (
	"os"

	"github.com/itsmostafa/scriptfeed/internal/loader"
	"github.com/itsmostafa/scriptfeed/internal/output"
	"github.com/itsmostafa/scriptfeed/internal/preprocess"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <script>",
	Short: "Show the statements a script is split into without running them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		// nothing is executed, so no engine is needed
		l := loader.New(nil, loaderOptions(out, false))
		report, err := l.Check(cmd.Context(), f, args[0], func(u preprocess.Unit) error {
			output.FormatUnit(out, u.StartLine, u.EndLine, u.Text)
			return nil
		})
		if report != nil {
			output.FormatLoadSummary(out, report.Lines, report.Units, 0)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
