package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/git-notes/pkg/display"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/queries"
)

// now is replaced in tests.
var now = time.Now

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPage(w io.Writer, page queries.GistPage, asJSON bool) error {
	if asJSON {
		return printJSON(w, page)
	}
	printGists(w, page.Data)

	desc := page.Pagination
	if total, ok := desc.Total(); ok {
		fmt.Fprintf(w, "\npage %d of %d\n", desc.Page, total)
	} else if desc.HasNext() {
		fmt.Fprintf(w, "\npage %d, more available\n", desc.Page)
	}
	return nil
}

func printGists(w io.Writer, gists []gist.Gist) {
	if len(gists) == 0 {
		fmt.Fprintln(w, "No gists found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tOWNER\tFILES\tUPDATED")
	for _, g := range gists {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			g.ID,
			truncate(display.Title(g), 50),
			g.OwnerLogin(),
			len(g.Files),
			display.TimeAgo(g.UpdatedAt, now()),
		)
	}
	tw.Flush()
}

func printGistHeader(w io.Writer, g gist.Gist, starred *bool) {
	fmt.Fprintln(w, display.Title(g))
	if g.OwnerLogin() != "" {
		fmt.Fprintf(w, "by %s, ", g.OwnerLogin())
	}
	visibility := "secret"
	if g.Public {
		visibility = "public"
	}
	fmt.Fprintf(w, "%s, updated %s\n", visibility, display.TimeAgo(g.UpdatedAt, now()))
	if starred != nil {
		if *starred {
			fmt.Fprintln(w, "★ starred")
		} else {
			fmt.Fprintln(w, "☆ not starred")
		}
	}
	if g.HTMLURL != "" {
		fmt.Fprintln(w, g.HTMLURL)
	}
}

func printFile(w io.Writer, f gist.File, preview string) {
	fmt.Fprintf(w, "\n== %s (%s, %d bytes)\n", f.Filename, display.FileLanguage(f), f.Size)
	fmt.Fprintln(w, preview)
}

func printUser(w io.Writer, u gist.User) {
	fmt.Fprintln(w, u.Login)
	if u.Name != nil && *u.Name != "" {
		fmt.Fprintf(w, "name:  %s\n", *u.Name)
	}
	if u.Email != nil && *u.Email != "" {
		fmt.Fprintf(w, "email: %s\n", *u.Email)
	}
	if u.HTMLURL != "" {
		fmt.Fprintf(w, "url:   %s\n", u.HTMLURL)
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
