// Package display formats gist data for terminal and JSON consumers.
package display

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Sternrassler/git-notes/pkg/gist"
)

// PreviewLines is the number of lines shown in a file preview.
const PreviewLines = 12

// TimeAgo renders the time elapsed between t and now.
// Hours are floor(elapsed / 1h) and days are floor(hours / 24).
func TimeAgo(t, now time.Time) string {
	hours := int(now.Sub(t) / time.Hour)
	switch {
	case hours < 1:
		return "less than an hour ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(hours/24, "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

var languages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"go":   "go",
	"java": "java",
	"json": "json",
	"css":  "css",
	"scss": "scss",
	"html": "html",
	"md":   "markdown",
	"yml":  "yaml",
	"yaml": "yaml",
	"sh":   "bash",
	"sql":  "sql",
}

// LanguageFromFilename guesses a language from the file extension, "text"
// when unknown.
func LanguageFromFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return "text"
}

// FileLanguage prefers the language GitHub reported for f.
func FileLanguage(f gist.File) string {
	if f.Language != nil && *f.Language != "" {
		return strings.ToLower(*f.Language)
	}
	return LanguageFromFilename(f.Filename)
}

// Preview returns the first n lines of content.
func Preview(content string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.SplitN(content, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// Title is the gist's description, falling back to its first filename.
func Title(g gist.Gist) string {
	if d := strings.TrimSpace(g.DescriptionText()); d != "" {
		return d
	}
	if names := g.Filenames(); len(names) > 0 {
		return names[0]
	}
	return g.ID
}
