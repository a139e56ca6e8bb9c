package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/voxrec/internal/config"
	"github.com/fakeyudi/voxrec/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is the structured logger, populated in PersistentPreRunE.
var logger = zap.NewNop().Sugar()

var (
	flagLogLevel string
	flagLogFile  string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "voxrec",
	Short:         "Record from the microphone with a live frequency visualizer",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load and merge config files and the environment.
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		if flagLogLevel != "" {
			cfg.LogLevel = flagLogLevel
		}

		opts := logging.Options{Path: flagLogFile, Level: cfg.LogLevel}
		if flagVerbose {
			opts.Console = cmd.ErrOrStderr()
		}
		l, err := logging.New(opts)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		logger = l
		logger.Debugw("config loaded", "source", cfg.Source, "codec", cfg.Codec, "output_dir", cfg.OutputDir)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	// With no subcommand, open the recorder when attached to a terminal.
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) {
			return cmd.Help()
		}
		return runRecord(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file (default $XDG_STATE_HOME/voxrec/voxrec.log)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log to stderr")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
