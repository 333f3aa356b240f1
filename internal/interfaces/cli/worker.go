package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/swclient"
	"github.com/spf13/cobra"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and delete cache buckets",
	}
	cmd.AddCommand(newCacheListCommand(rootOpts), newCachePurgeCommand(rootOpts))
	return cmd
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.client(rootOpts.logger())
			if err != nil {
				return err
			}
			list, err := client.ListCaches(cmd.Context())
			if err != nil {
				return serverError("list caches", err)
			}
			return rootOpts.formatter(cmd).Success(list, func(w io.Writer) {
				if len(list.Buckets) == 0 {
					_, _ = fmt.Fprintf(w, "no buckets under %s\n", list.Prefix)
					return
				}
				for _, b := range list.Buckets {
					_, _ = fmt.Fprintln(w, b)
				}
			})
		},
	}
}

func newCachePurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every bucket under a prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(prefix) == "" {
				return WrapExitError(ExitCommandError, "invalid --prefix", errors.New("prefix is required"))
			}
			client, err := rootOpts.client(rootOpts.logger())
			if err != nil {
				return err
			}
			deleted, err := client.DeletePrefix(cmd.Context(), prefix)
			if err != nil {
				return serverError("purge caches", err)
			}
			return rootOpts.formatter(cmd).Success(map[string]any{"deleted": deleted}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "deleted %d bucket(s)\n", len(deleted))
				for _, b := range deleted {
					_, _ = fmt.Fprintf(w, "  %s\n", b)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "bucket name prefix")
	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active, waiting and installing workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.client(rootOpts.logger())
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return serverError("status", err)
			}
			return rootOpts.formatter(cmd).Success(status, func(w io.Writer) {
				writeStatus(w, status)
			})
		},
	}
}

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Let the waiting worker take control",
		Long: `Send SKIP_WAITING to the waiting worker. Connected foregrounds receive
SW_ACTIVATED and show their update prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.client(rootOpts.logger())
			if err != nil {
				return err
			}
			status, err := client.Promote(cmd.Context())
			if errors.Is(err, offline.ErrNoWaitingWorker) {
				return WrapExitError(ExitFailure, "nothing to promote", err)
			}
			if err != nil {
				return serverError("promote", err)
			}
			return rootOpts.formatter(cmd).Success(status, func(w io.Writer) {
				writeStatus(w, status)
			})
		},
	}
}

func writeStatus(w io.Writer, s *appoffline.Status) {
	row := func(slot string, ws *appoffline.WorkerStatus) {
		if ws == nil {
			_, _ = fmt.Fprintf(w, "%-11s -\n", slot)
			return
		}
		_, _ = fmt.Fprintf(w, "%-11s %s (%s) %s\n", slot, ws.Version, ws.State, ws.Bucket)
	}
	row("active", s.Active)
	row("waiting", s.Waiting)
	row("installing", s.Installing)
	_, _ = fmt.Fprintf(w, "%-11s %d\n", "clients", s.Clients)
}

// serverError maps a refusal by the server to ExitFailure and a transport
// failure to ExitCommandError.
func serverError(op string, err error) error {
	var apiErr *swclient.APIError
	if errors.As(err, &apiErr) {
		return WrapExitError(ExitFailure, op, err)
	}
	return WrapExitError(ExitCommandError, op, err)
}
