package cli

import (
	"fmt"
	"io"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/version"
	"github.com/spf13/cobra"
)

// VersionResult is the output of version
type VersionResult struct {
	Tag string `json:"tag"`
}

// NextResult is the output of version next
type NextResult struct {
	Current string       `json:"current"`
	Bump    version.Bump `json:"bump"`
	Next    string       `json:"next"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions, resolverOpts ...version.Option) *cobra.Command {
	var (
		dir    string
		semver string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version tag",
		Long: `Print the version tag the next build would carry: the short commit hash
and a UTC timestamp, prefixed by --semver when given. The tag is what the
worker script URL and cache bucket names are keyed on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := version.Tag
			if tag == "" || dir != "" || semver != "" {
				opts := append([]version.Option{version.WithDir(dir)}, resolverOpts...)
				if semver != "" {
					opts = append(opts, version.WithSemver(semver))
				}
				tag = version.NewResolver(opts...).Resolve(cmd.Context()).String()
			}
			result := VersionResult{Tag: tag}
			return rootOpts.formatter(cmd).Success(result, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, result.Tag)
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "git working tree (default current directory)")
	cmd.Flags().StringVar(&semver, "semver", "", "release version prefix")

	cmd.AddCommand(newVersionNextCommand(rootOpts))
	return cmd
}

func newVersionNextCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		message string
		current string
		force   string
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Compute the next semantic version from a commit message",
		Long: `Apply a conventional-commit bump to --current: a breaking change is major,
feat is minor, fix, perf and release are patch. Other messages keep the
version unchanged. --bump overrides the message.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forced, err := version.ParseBump(force)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --bump", err)
			}
			bump := version.DecideBump(message, forced)
			next, err := version.Next(current, bump)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --current", err)
			}
			result := NextResult{Current: current, Bump: bump, Next: next}
			return rootOpts.formatter(cmd).Success(result, func(w io.Writer) {
				_, _ = fmt.Fprintln(w, result.Next)
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&current, "current", version.DefaultSemver, "current semantic version")
	cmd.Flags().StringVar(&force, "bump", "", "force a bump (major|minor|patch)")
	return cmd
}
