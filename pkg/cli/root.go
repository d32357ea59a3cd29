package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/mockstore/pkg/config"
	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// DefaultConfigFile is used when neither --config nor MOCKSTORE_CONFIG is set.
const DefaultConfigFile = "mockstore.yaml"

// ConfigEnvVar names the environment variable holding the config path.
const ConfigEnvVar = "MOCKSTORE_CONFIG"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	jsonOutput bool
}

// NewRootCommand builds the mockstore command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "mockstore",
		Short: "mockstore serves deterministic GraphQL mocks backed by a writable store",
		Long: `mockstore serves a GraphQL schema whose data comes from an in-memory mock store.
Records are generated on first access from per-type generators and can be
overwritten by mutations, so every later query sees the written values.

Configuration is read from mockstore.yaml, the file named by --config, or
the file named by the MOCKSTORE_CONFIG environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (default: $MOCKSTORE_CONFIG or ./mockstore.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (text, json)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newInitCommand(opts),
		newValidateCommand(opts),
		newServeCommand(opts),
		newQueryCommand(opts),
		newSchemaCommand(),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolveConfigPath applies the --config, env var, default file precedence.
func (o *globalOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	return DefaultConfigFile
}

// loadConfig loads the configuration and applies logging overrides.
func (o *globalOptions) loadConfig() (*config.Config, string, error) {
	path := o.resolveConfigPath()
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, path, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, path, nil
}

// logger builds the process logger. Logs always go to stderr so command
// output on stdout stays machine-readable.
func (o *globalOptions) logger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.logFormat != "" {
		format = o.logFormat
	}
	return logging.FromStrings(level, format, w)
}
