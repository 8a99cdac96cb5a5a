package gist

import "strings"

// Filter returns the gists whose description, owner login or any filename
// contains query, case-insensitively. A blank query returns gists unchanged.
func Filter(gists []Gist, query string) []Gist {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return gists
	}

	out := make([]Gist, 0, len(gists))
	for _, g := range gists {
		if matches(g, q) {
			out = append(out, g)
		}
	}
	return out
}

func matches(g Gist, q string) bool {
	if strings.Contains(strings.ToLower(g.DescriptionText()), q) {
		return true
	}
	if strings.Contains(strings.ToLower(g.OwnerLogin()), q) {
		return true
	}
	for name := range g.Files {
		if strings.Contains(strings.ToLower(name), q) {
			return true
		}
	}
	return false
}
