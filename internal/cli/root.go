package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/bookshelf/internal/config"
	"github.com/roach88/bookshelf/internal/ir"
	"github.com/roach88/bookshelf/internal/runtime"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is an optional YAML file layered over config.Default().
	Config string

	// Flag overrides, applied only when set on the command line.
	Database  string
	Backend   string
	MaxLength int

	// IDGenerator overrides dispatch ids (for testing).
	IDGenerator runtime.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bookshelf CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookshelf",
		Short:   "bookshelf - bounded book registry",
		Version: ir.RuntimeVersion,
		Long:    `A registry of books keyed by id, with bounded titles and descriptions.

Every successful create or remove commits the record change and its
BookCreated or BookRemoved event in one transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")
	flags.StringVar(&opts.Database, "db", "", "SQLite file or Badger directory (overrides config)")
	flags.StringVar(&opts.Backend, "backend", "", "storage backend: sqlite|badger (overrides config)")
	flags.IntVar(&opts.MaxLength, "max-length", 0, "bound for ids, titles, and descriptions (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
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

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig resolves the effective configuration: defaults, then the
// config file, then command-line overrides.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("backend") {
		if !flags.Changed("db") && cfg.Database == config.DefaultDatabase(cfg.Backend) {
			cfg.Database = config.DefaultDatabase(o.Backend)
		}
		cfg.Backend = o.Backend
	}
	if flags.Changed("max-length") {
		cfg.MaxLength = o.MaxLength
	}
	if o.Verbose {
		cfg.LogLevel = zerolog.DebugLevel.String()
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. Logs always go to w, never to
// command output.
func newLogger(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// openRuntime opens the configured backend and starts a runtime over it.
// The caller must Close the runtime.
func (o *RootOptions) openRuntime(cmd *cobra.Command) (*runtime.Runtime, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	log := newLogger(cmd.ErrOrStderr(), o.Format, level)

	log.Debug().
		Str("backend", cfg.Backend).
		Str("database", cfg.Database).
		Int("max_length", cfg.MaxLength).
		Msg("opening backend")

	backend, err := runtime.OpenBackend(runtime.BackendConfig{
		Kind:      cfg.Backend,
		Path:      cfg.Database,
		MaxLength: cfg.MaxLength,
		Logger:    log,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	rtOpts := []runtime.Option{
		runtime.WithLogger(log),
		runtime.WithCacheSize(cfg.CacheSize),
	}
	if o.IDGenerator != nil {
		rtOpts = append(rtOpts, runtime.WithIDGenerator(o.IDGenerator))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := runtime.New(ctx, backend, rtOpts...)
	if err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start runtime", err)
	}
	return rt, nil
}
