// Command git-notes browses, stars, forks and creates GitHub gists from the
// terminal, and can serve the same operations as a JSON API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
