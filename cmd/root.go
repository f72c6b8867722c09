package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/itsmostafa/scriptfeed/internal/config"
	"github.com/itsmostafa/scriptfeed/internal/version"
	"github.com/spf13/cobra"
)

var configPath string
var logLevel string

// cfg and logger are set up before any subcommand runs
var cfg *config.Config
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "scriptfeed",
	Short: "Feed script files to an embedded JavaScript engine",
	Long: `scriptfeed loads a script file line by line, strips block comments, joins
brace and bracket blocks that span several lines into single statements, and
runs each resulting unit on an embedded JavaScript engine in file order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}

		level, err := config.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}

		cfg = loaded
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("scriptfeed %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
