package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/nearcorr/internal/config"
)

type rootOpts struct {
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded in PersistentPreRunE and shared with subcommands.
	cfg *config.Config
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "nearcorr",
		Short: "Compute the nearest correlation matrix (Higham 2002)",
		Long: `nearcorr repairs a symmetric matrix into the nearest valid correlation
matrix (symmetric, positive semidefinite, unit diagonal) using alternating
projections with Dykstra's correction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = opts.logFormat
			}
			if err = cfg.Validate(); err != nil {
				return err
			}
			if err = setupLogging(cfg, stderr); err != nil {
				return err
			}
			opts.cfg = cfg

			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML solver profile")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "Log format (console, json)")

	cmd.AddCommand(
		newSolveCommand(opts, stdout),
		newVersionCommand(stdout),
	)

	return cmd
}

// setupLogging points the global zerolog logger at stderr.
func setupLogging(cfg *config.Config, stderr io.Writer) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var logger zerolog.Logger
	if cfg.Log.Format == "json" {
		logger = zerolog.New(stderr).With().Timestamp().Logger()
	} else {
		logger = log.Output(zerolog.ConsoleWriter{Out: stderr})
	}
	log.Logger = logger.Level(level)

	return nil
}
