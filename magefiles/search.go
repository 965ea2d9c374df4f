//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search runs a sample query through the CLI. Set QUERY to override the
// query text, e.g. QUERY="oak standing desk" mage search.
func Search() error {
	mg.Deps(Build)
	q := os.Getenv("QUERY")
	if q == "" {
		q = "red running shoes"
	}
	fmt.Printf("[search] %s\n", q)
	return sh.RunV("./"+binDir+"/"+binName, "search", q, "--tier", "commodity")
}

// Serve builds and starts the HTTP server.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "serve")
}
