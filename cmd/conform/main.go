// Command conform runs an interpreter's conformance suite and compares the
// results with a saved reference.
package main

import (
	"os"

	"conform/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Environ(), os.Stdout, os.Stderr))
}
