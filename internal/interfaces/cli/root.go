// Package cli implements ventasctl, the operator and foreground CLI of a
// ventas server.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/swclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultServer is used when neither --server nor VENTAS_SERVER is set
const DefaultServer = "http://localhost:8080"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Config  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the ventasctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ventasctl",
		Short: "Operate the offline cache of a ventas server",
		Long: `ventasctl inspects and drives the worker registry of a running ventas
server: cache buckets, promotion of waiting versions and the update prompt
a foreground shows when a new version takes control.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	server := os.Getenv("VENTAS_SERVER")
	if server == "" {
		server = DefaultServer
	}
	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", server, "server base URL")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (default ./config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewDevResetCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger writes to stderr so it never mixes with command output
func (o *RootOptions) logger() *zap.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func (o *RootOptions) client(log *zap.Logger) (*swclient.Client, error) {
	c, err := swclient.New(o.Server, swclient.WithLogger(log))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --server", err)
	}
	return c, nil
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}
