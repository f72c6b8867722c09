package cmd

import (
	"github.com/itsmostafa/scriptfeed/internal/repl"
	"github.com/spf13/cobra"
)

var replOut string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long:  `Start an interactive session. Type quit(); to exit, or end the input.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("out") {
			cfg.OutputFile = replOut
		}

		s, err := newSession(cmd.OutOrStdout(), cfg.OutputFile)
		if err != nil {
			return err
		}
		defer s.Close()

		return repl.New(s.eng, replOptions(cmd.InOrStdin(), cmd.OutOrStdout())).Run(cmd.Context())
	},
}

func init() {
	replCmd.Flags().StringVarP(&replOut, "out", "o", "", "File that emit() writes to")
	rootCmd.AddCommand(replCmd)
}
