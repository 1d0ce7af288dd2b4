package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbridge/mbridge/internal/bridge"
	"github.com/mbridge/mbridge/internal/codec"
	"github.com/mbridge/mbridge/internal/config"
	"github.com/mbridge/mbridge/internal/engine"
)

// RootOptions holds the global flags shared by every command.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // config file path
	Database string // engine database path
	Mode     string // "strict" | "canonical"
	Workers  int
	Debug    string

	table OperationTable
	cfg   config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mbridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "mbridge",
		Short:         "mbridge - hierarchical sparse-array engine bridge",
		Long:          "A dispatch bridge for a hierarchical sparse-array database engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return &ExitError{Code: ExitCommandError,
					Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}

			table, err := LoadOperationTable()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "loading operation table", Err: err}
			}
			opts.table = table

			cfg := config.Default()
			if opts.Config != "" {
				cfg, err = config.Load(opts.Config)
				if err != nil {
					return &ExitError{Code: ExitCommandError, Message: "loading config", Err: err}
				}
			}
			// Explicit flags win over the config file.
			if cmd.Flags().Changed("db") {
				cfg.Database = opts.Database
			}
			if cmd.Flags().Changed("mode") {
				cfg.Mode = opts.Mode
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = opts.Workers
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = opts.Debug
			}
			if cfg.Mode != "strict" && cfg.Mode != "canonical" {
				return &ExitError{Code: ExitCommandError,
					Message: fmt.Sprintf("invalid mode %q: must be strict or canonical", cfg.Mode)}
			}
			if _, err := bridge.ParseDebug(cfg.Debug); err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid debug level", Err: err}
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "engine database path (empty = in-memory)")
	cmd.PersistentFlags().StringVar(&opts.Mode, "mode", "canonical", "value typing mode (strict|canonical)")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 1, "dispatch worker count")
	cmd.PersistentFlags().StringVar(&opts.Debug, "debug", "off", "dispatch tracing level (off|low|medium|high)")

	addOperationCommands(cmd, opts)

	return cmd
}

// connect opens the engine and the bridge per the resolved configuration.
func (opts *RootOptions) connect() (*bridge.Bridge, error) {
	db, err := engine.Open(opts.cfg.Database)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "opening engine", Err: err}
	}
	return bridge.New(db,
		bridge.WithWorkers(opts.cfg.Workers),
		bridge.WithDebug(opts.cfg.DebugLevel()),
	), nil
}

func (opts *RootOptions) mode() codec.Mode {
	if opts.cfg.Mode == "strict" {
		return codec.Strict
	}
	return codec.Canonical
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
