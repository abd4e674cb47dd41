package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/golojan/golojan-auth/config"
	"github.com/golojan/golojan-auth/logger"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	envFile    string
	configFile string
	logLevel   string
	logFormat  string
	output     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the golojan-auth command tree
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "golojan-auth",
		Short:         "Prepare Golojan OAuth 2.0 / OIDC authorization requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	pf.StringVar(&flags.configFile, "config", "", "path to a YAML/JSON config file")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", logger.FormatConsole, "log format (console, json)")
	pf.StringVarP(&flags.output, "output", "o", "json", "output format (json, yaml)")

	root.AddCommand(
		newAuthorizeCmd(flags),
		newRequestCmd(flags),
		newProviderCmd(flags),
		newPKCECmd(flags),
	)
	return root
}

// setup loads the configuration and logger for a subcommand
func (f *globalFlags) setup() (config.Config, zerolog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:     f.logLevel,
		Format:    f.logFormat,
		Timestamp: true,
		Output:    os.Stderr,
	})
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}

	var opts []config.LoaderOption
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return config.Config{}, log, fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Debug().Str("api_url", cfg.APIURL).Str("auth_url", cfg.AuthURL).Msg("configuration loaded")

	return cfg, log, nil
}
