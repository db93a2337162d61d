package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/miradorstack/incident-rca/internal/config"
	"github.com/miradorstack/incident-rca/internal/utils"
)

// Version is reported by --version and as the OTLP service version.
const Version = "0.1.0"

type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "incident-rca",
		Short: "Grounded root cause analysis for cluster incidents",
		Long: `incident-rca turns cluster events, restart counts and metrics into an incident
window, a ranked evidence set and a root cause hypothesis that cites only that evidence.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to configuration file (defaults to $INCIDENT_RCA_CONFIG)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "emit JSON logs")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newAnalyzeCmd(flags))
	root.AddCommand(newCollectCmd(flags))
	return root
}

// setup loads configuration and builds the logger every subcommand shares.
func (f *globalFlags) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logJSON {
		cfg.Logging.JSON = true
	}
	// Logs go to stderr so command output on stdout stays machine readable.
	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.JSON)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
