package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions carries the persistent flags into subcommands.
type rootOptions struct {
	v          *viper.Viper
	configFile string
}

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "git-notes",
		Short:         "Browse and manage GitHub gists",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./git-notes.yaml or $HOME/.config/git-notes/git-notes.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error, disabled")
	flags.Bool("pretty", false, "human readable logs")
	flags.String("token", "", "GitHub personal access token")
	flags.String("base-url", "", "GitHub API base URL")

	opts.v.BindPFlag("log.level", flags.Lookup("log-level"))
	opts.v.BindPFlag("log.pretty", flags.Lookup("pretty"))
	opts.v.BindPFlag("github.token", flags.Lookup("token"))
	opts.v.BindPFlag("github.base_url", flags.Lookup("base-url"))

	rootCmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newListCommand(opts),
		newBrowseCommand(opts),
		newStarredCommand(opts),
		newUserCommand(opts),
		newShowCommand(opts),
		newRawCommand(opts),
		newStarCommand(opts, true),
		newStarCommand(opts, false),
		newForkCommand(opts),
		newCreateCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// withApp builds the stack for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts.v, opts.configFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
