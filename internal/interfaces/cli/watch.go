package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/swclient"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/version"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// WatchOptions holds flags of the watch command
type WatchOptions struct {
	ClientID    string
	RecordPath  string
	Version     string
	Interactive bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run as a foreground and show update prompts",
		Long: `Register this build's worker, then follow the server's worker events.
When a new version takes control the update prompt is printed; type r to
reload or l to be asked again on the next activation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "event stream client id (default random)")
	cmd.Flags().StringVar(&opts.RecordPath, "record", "", "version record file (default offline.record_path)")
	cmd.Flags().StringVar(&opts.Version, "app-version", "", "version to register (default offline.version or the build tag)")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", true, "read r/l answers from stdin")
	return cmd
}

func runWatch(cmd *cobra.Command, rootOpts *RootOptions, opts *WatchOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	log := rootOpts.logger()
	client, err := rootOpts.client(log)
	if err != nil {
		return err
	}

	recordPath := opts.RecordPath
	if recordPath == "" {
		recordPath = cfg.Offline.RecordPath
	}
	appVersion := offline.VersionTag(opts.Version)
	if appVersion.IsZero() {
		appVersion = offline.VersionTag(cfg.Offline.Version)
	}
	if appVersion.IsZero() {
		appVersion = version.Current()
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = "ventasctl-" + uuid.NewString()
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	record := persistence.NewFileVersionRecord(recordPath, log)
	board := NewTerminalBoard(out)

	boot := appoffline.NewBootstrap(appoffline.BootstrapConfig{
		Mode:    appoffline.ModeProduction,
		Version: appVersion,
		Prefix:  cfg.Offline.CachePrefix,
	}, client, client, record, board, log)
	if err := boot.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "bootstrap", err)
	}

	var notifier *appoffline.UpdateNotifier
	reload := func(ctx context.Context) error {
		status, err := client.Status(ctx)
		if err != nil {
			return err
		}
		if status.Active != nil {
			if err := record.Save(ctx, status.Active.Version); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Now running %s\n", status.Active.Version)
		}
		notifier.Later()
		return nil
	}
	notifier = appoffline.NewUpdateNotifier(record, board, reload,
		appoffline.WithNotifierLogger(log),
		appoffline.WithNotifierID(clientID))

	if opts.Interactive {
		go readAnswers(ctx, cmd.InOrStdin(), notifier, log)
	}

	log.Info("watching worker events", zap.String("server", rootOpts.Server), zap.String("client_id", clientID))
	if err := client.Watch(ctx, clientID, swclient.Dispatch(notifier, log)); err != nil {
		return serverError("watch", err)
	}
	return nil
}

// readAnswers maps r and l lines to the prompt actions until in is exhausted
func readAnswers(ctx context.Context, in io.Reader, n *appoffline.UpdateNotifier, log *zap.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if _, ok := n.Prompt(); !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r", "reload":
			if err := n.ReloadNow(ctx); err != nil {
				log.Warn("reload failed", zap.Error(err))
				n.Later()
			}
		case "l", "later":
			n.Later()
		}
	}
}

// NewDevResetCommand creates the dev-reset command.
func NewDevResetCommand(rootOpts *RootOptions) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "dev-reset",
		Short: "Unregister every worker and delete its buckets",
		Long: `Run the development bootstrap against the server: every worker is
unregistered and every bucket under the cache prefix deleted, so the next
load goes to the network.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if prefix == "" {
				prefix = cfg.Offline.CachePrefix
			}
			log := rootOpts.logger()
			client, err := rootOpts.client(log)
			if err != nil {
				return err
			}

			board := appoffline.NewMemoryBoard()
			boot := appoffline.NewBootstrap(appoffline.BootstrapConfig{
				Mode:   appoffline.ModeDevelopment,
				Prefix: prefix,
			}, client, client, &appoffline.MemoryVersionRecord{}, board, log)
			if err := boot.Start(cmd.Context()); err != nil {
				return WrapExitError(ExitCommandError, "bootstrap", err)
			}

			list, err := client.ListCaches(cmd.Context())
			if err != nil {
				return serverError("list caches", err)
			}
			return rootOpts.formatter(cmd).Success(list, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "workers unregistered, %d bucket(s) left under %s\n", len(list.Buckets), prefix)
			})
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "bucket name prefix (default offline.cache_prefix)")
	return cmd
}
