package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imbridge",
		Short: "Bridge remote IM accounts into a local IRC control channel",
		Long: "imbridge logs in to remote chat accounts, announces their buddy lists, " +
			"relays incoming messages to the host and sends the host's replies back.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			log = logging.New(nil, levelOr("info"))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.imbridge/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// levelOr returns the --log-level flag, or fallback when it is unset.
func levelOr(fallback string) string {
	if logLevel != "" {
		return logLevel
	}
	return fallback
}

// configureLogger rebuilds the package logger from the loaded config. The
// returned closer releases the log file, if one is configured.
func configureLogger(cfg config.LoggingConfig) (io.Closer, error) {
	level := levelOr(cfg.Level)
	if cfg.File == "" {
		log = logging.NewStyled(nil, level, cfg.ConsoleStyle)
		return io.NopCloser(nil), nil
	}
	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(paths.Logs, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log = logging.New(f, level)
	return f, nil
}

// loadConfig loads and validates the config file, logging every issue.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "imbridge:", err)
	}
	return err
}
