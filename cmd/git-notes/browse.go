package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/pagination"
	"github.com/Sternrassler/git-notes/pkg/queries"
	"github.com/spf13/cobra"
)

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	var (
		perPage int
		search  string
		starred bool
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Args:  cobra.NoArgs,
		Short: "Page through gists interactively",
		Long: `Page through public (or starred) gists.

Commands: n (next), p (previous), <number> (go to page), s <text> (search),
q (quit).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.authenticate(ctx, starred); err != nil {
					return err
				}
				a.session.SetSearchQuery(search)

				size := perPage
				if size == 0 {
					size = a.cfg.GitHub.PerPage
				}
				b := &browser{
					app:     a,
					starred: starred,
					state:   pagination.NewState(pagination.Params{Page: 1, PerPage: size}),
					out:     cmd.OutOrStdout(),
				}
				return b.run(ctx, cmd.InOrStdin())
			})
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", 0, "gists per page (default github.per_page)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "initial search text")
	cmd.Flags().BoolVar(&starred, "starred", false, "browse your starred gists")
	return cmd
}

// browser drives one interactive paging session.
type browser struct {
	app     *app
	starred bool
	state   *pagination.State
	out     io.Writer
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	desc, err := b.show(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "q":
			return nil
		case input == "n":
			if !b.state.Advance(desc) {
				fmt.Fprintln(b.out, "Already on the last page")
				continue
			}
		case input == "p":
			b.state.Prev()
		case strings.HasPrefix(input, "s "):
			b.app.session.SetSearchQuery(strings.TrimSpace(input[2:]))
		case input == "":
			continue
		default:
			page, err := strconv.Atoi(input)
			if err != nil {
				fmt.Fprintf(b.out, "Unknown command %q\n", input)
				continue
			}
			b.state.GoTo(page)
		}

		if desc, err = b.show(ctx); err != nil {
			return err
		}
	}
}

// show prints the current page and returns its descriptor.
func (b *browser) show(ctx context.Context) (pagination.Descriptor, error) {
	params := b.state.Params()

	var (
		page queries.GistPage
		err  error
	)
	if b.starred {
		page, err = b.app.svc.StarredGists(ctx, params)
	} else {
		page, err = b.app.svc.SearchGists(ctx, params)
	}
	if err != nil {
		return pagination.Descriptor{}, err
	}

	if b.starred {
		page.Data = gist.Filter(page.Data, b.app.session.SearchQuery())
	}
	if err := printPage(b.out, page, false); err != nil {
		return pagination.Descriptor{}, err
	}
	return page.Pagination, nil
}
