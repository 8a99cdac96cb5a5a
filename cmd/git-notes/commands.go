package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Sternrassler/git-notes/internal/config"
	"github.com/Sternrassler/git-notes/internal/server"
	"github.com/Sternrassler/git-notes/pkg/display"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/identity"
	"github.com/Sternrassler/git-notes/pkg/logging"
	"github.com/Sternrassler/git-notes/pkg/pagination"
	"github.com/Sternrassler/git-notes/pkg/queries"
	"github.com/spf13/cobra"
)

// pageFlags are shared by the listing commands.
type pageFlags struct {
	page    int
	perPage int
	json    bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "gists per page (default github.per_page)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
}

func (f *pageFlags) params(a *app) pagination.Params {
	perPage := f.perPage
	if perPage == 0 {
		perPage = a.cfg.GitHub.PerPage
	}
	return pagination.Params{Page: f.page, PerPage: perPage}.Normalize()
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var printToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in with a token or the device flow",
		Long: `Sign in to GitHub.

With github.token set the token is verified. Otherwise the OAuth device flow
runs against github.oauth_client_id and the resulting token can be printed
for use in later invocations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var provider identity.Provider
				switch {
				case a.cfg.GitHub.Token != "":
					provider = a.staticProvider()
				case a.cfg.GitHub.OAuthClientID != "":
					provider = identity.DeviceFlowProvider{
						ClientID:   a.cfg.GitHub.OAuthClientID,
						APIBaseURL: a.cfg.GitHub.BaseURL,
						HTTPClient: a.httpClient(),
						Logger:     logging.NewLogger(logging.ComponentSession),
						Prompt: func(uri, code string) {
							fmt.Fprintf(cmd.ErrOrStderr(), "Open %s and enter code %s\n", uri, code)
						},
					}
				default:
					return errors.New("set github.token or github.oauth_client_id to log in")
				}

				if err := a.login(ctx, provider); err != nil {
					return err
				}

				user, _ := a.session.User()
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Login)
				if printToken {
					fmt.Fprintf(cmd.OutOrStdout(), "export %s_GITHUB_TOKEN=%s\n", config.EnvPrefix, a.session.AccessToken())
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&printToken, "print-token", false, "print the access token as a shell export")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "End the session and clear cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out, cache cleared")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, true); err != nil {
					return err
				}
				user, err := a.svc.CurrentUser(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), user)
				}
				printUser(cmd.OutOrStdout(), user)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		pf     pageFlags
		search string
		pages  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Short:   "List public gists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, false); err != nil {
					return err
				}
				a.session.SetSearchQuery(search)

				if pages > 1 {
					gists, err := collectPages(ctx, a.svc.InfiniteGists(pf.params(a).PerPage), pages)
					if err != nil {
						return err
					}
					gists = gist.Filter(gists, search)
					if pf.json {
						return printJSON(cmd.OutOrStdout(), gists)
					}
					printGists(cmd.OutOrStdout(), gists)
					return nil
				}

				page, err := a.svc.SearchGists(ctx, pf.params(a))
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), page, pf.json)
			})
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by description, owner or filename")
	cmd.Flags().IntVar(&pages, "pages", 1, "read this many pages from the start of the listing")
	return cmd
}

func newStarredCommand(opts *rootOptions) *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:   "starred",
		Args:  cobra.NoArgs,
		Short: "List your starred gists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, true); err != nil {
					return err
				}
				page, err := a.svc.StarredGists(ctx, pf.params(a))
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), page, pf.json)
			})
		},
	}

	pf.register(cmd)
	return cmd
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	var (
		pf  pageFlags
		all bool
	)

	cmd := &cobra.Command{
		Use:   "user <username>",
		Args:  cobra.ExactArgs(1),
		Short: "List a user's gists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, false); err != nil {
					return err
				}

				if all {
					gists, err := a.svc.AllUserGists(ctx, args[0], pf.params(a).PerPage, pagination.DefaultConfig())
					if len(gists) > 0 {
						if pf.json {
							if jsonErr := printJSON(cmd.OutOrStdout(), gists); jsonErr != nil {
								return jsonErr
							}
						} else {
							printGists(cmd.OutOrStdout(), gists)
						}
					}
					return err
				}

				page, err := a.svc.UserGists(ctx, args[0], pf.params(a))
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), page, pf.json)
			})
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "read every page")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		lines  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show a gist with file previews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, false); err != nil {
					return err
				}
				g, err := a.svc.Gist(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), g)
				}

				var starred *bool
				if a.session.IsLoggedIn() {
					if s, err := a.svc.IsStarred(ctx, g.ID); err == nil {
						starred = &s
					} else {
						a.logger.Warn().Err(err).Str("gist", g.ID).Msg("Star status unavailable")
					}
				}

				out := cmd.OutOrStdout()
				printGistHeader(out, g, starred)
				for _, name := range g.Filenames() {
					f := g.Files[name]
					content, err := fileText(ctx, a.svc, f)
					if err != nil {
						return err
					}
					printFile(out, f, display.Preview(content, lines))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", display.PreviewLines, "preview lines per file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newRawCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <id> <filename>",
		Args:  cobra.ExactArgs(2),
		Short: "Print a file's full content",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, false); err != nil {
					return err
				}
				g, err := a.svc.Gist(ctx, args[0])
				if err != nil {
					return err
				}
				f, ok := g.Files[args[1]]
				if !ok {
					return fmt.Errorf("gist %s has no file %q", g.ID, args[1])
				}
				content, err := a.svc.FileContent(ctx, f.RawURL)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			})
		},
	}
}

func newStarCommand(opts *rootOptions, star bool) *cobra.Command {
	use, short, done := "star <id>", "Star a gist", "Starred"
	if !star {
		use, short, done = "unstar <id>", "Remove a star", "Unstarred"
	}

	return &cobra.Command{
		Use:   use,
		Args:  cobra.ExactArgs(1),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, true); err != nil {
					return err
				}
				var err error
				if star {
					err = a.svc.Star(ctx, args[0])
				} else {
					err = a.svc.Unstar(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, args[0])
				return nil
			})
		},
	}
}

func newForkCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fork <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Fork a gist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, true); err != nil {
					return err
				}
				fork, err := a.svc.Fork(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forked %s to %s %s\n", args[0], fork.ID, fork.HTMLURL)
				return nil
			})
		},
	}
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		description string
		public      bool
		files       []string
	)

	cmd := &cobra.Command{
		Use:   "create --file <path> [--file <path>...]",
		Args:  cobra.NoArgs,
		Short: "Create a gist from local files",
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts := make([]gist.Draft, 0, len(files))
			for _, path := range files {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				drafts = append(drafts, gist.Draft{Filename: filepath.Base(path), Content: string(content)})
			}
			req, err := gist.NewCreateRequest(description, public, drafts)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, true); err != nil {
					return err
				}
				created, err := a.svc.Create(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", created.ID, created.HTMLURL)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "gist description")
	cmd.Flags().BoolVar(&public, "public", false, "create a public gist")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "file to include (repeatable)")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Serve the gist API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, false); err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				srv := server.New(a.svc, a.ready, logging.NewLogger(logging.ComponentServer))
				return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (default server.addr)")
	opts.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// collectPages reads up to limit pages from it.
func collectPages(ctx context.Context, it *queries.GistIterator, limit int) ([]gist.Gist, error) {
	var all []gist.Gist
	for i := 0; i < limit; i++ {
		data, _, err := it.Next(ctx)
		if errors.Is(err, pagination.ErrDone) {
			break
		}
		if err != nil {
			return all, err
		}
		all = append(all, data...)
	}
	return all, nil
}

// fileText returns a file's content, downloading it when the detail response
// omitted or truncated it.
func fileText(ctx context.Context, svc *queries.Service, f gist.File) (string, error) {
	if f.Content != "" && !f.Truncated {
		return f.Content, nil
	}
	if f.RawURL == "" {
		return "", nil
	}
	return svc.FileContent(ctx, f.RawURL)
}
