// Package cmd implements the CLI commands using cobra.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

const (
	defaultLogLevel = "info"
	appName         = "mbox-split"
)

// Config holds CLI configuration shared across commands.
type Config struct {
	MaxMessages int
	MaxSizeMB   int64
	OutputDir   string
	Prefix      string
	DryRun      bool
	Verbose     bool
	LogLevel    string
	LogJSON     bool
	NoColor     bool
}

// Global config instance used by commands
var cfg = &Config{}

// NewRootCmd creates a new root command with all subcommands.
// This factory function allows creating fresh command trees for testing.
func NewRootCmd() *cobra.Command {
	// Reset config to defaults
	*cfg = Config{
		LogLevel: defaultLogLevel,
	}

	rootCmd := &cobra.Command{
		Use:   "mbox-split [flags] <source_file>",
		Short: "Split a large mbox archive into smaller archives",
		Long: `mbox-split reads one mbox archive and rewrites it as a sequence of
smaller archives named <prefix>_1.mbox, <prefix>_2.mbox, ...

A new archive is started every --max-messages messages, or once the current
archive holds at least --max-size megabytes. One of the two is required; when
both are given the message count wins.`,
		Version: Version,
		Args:    cobra.ExactArgs(1),
		RunE:    runSplit,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return checkFormat()
		},
	}

	// Global flags
	BindOutputFlags(rootCmd)
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "V", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", getEnvOrDefault("MBOX_SPLIT_LOG_LEVEL", defaultLogLevel), "Log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&cfg.LogJSON, "log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")

	// Split flags
	bindPolicyFlags(rootCmd)
	rootCmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", getEnvOrDefault("MBOX_SPLIT_OUTPUT", ""), "Output directory (default: current directory)")
	rootCmd.Flags().StringVar(&cfg.Prefix, "prefix", "", "Output file prefix (default: source file name without extension)")
	rootCmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Report the parts that would be written without writing them")

	// Add subcommands
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newValidateCmd())

	return rootCmd
}

// bindPolicyFlags adds the split criteria flags to a command.
func bindPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&cfg.MaxMessages, "max-messages", "m", 0, "Maximum number of messages per split file (e.g. 1000)")
	cmd.Flags().Int64VarP(&cfg.MaxSizeMB, "max-size", "s", 0, "Maximum size in MB per split file (e.g. 500)")
}

// ExecuteContext runs the CLI with a context that stops the split between
// messages when it is canceled.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with custom args and writers (for testing).
func ExecuteWithArgs(args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// newLogger creates the structured logger handed to the splitter.
func newLogger(w io.Writer) (hclog.Logger, error) {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if cfg.Verbose && level > hclog.Debug {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       appName,
		Level:      level,
		Output:     w,
		JSONFormat: cfg.LogJSON,
	}), nil
}
