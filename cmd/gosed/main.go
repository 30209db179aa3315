// Command gosed is a standalone entry point for the sed engine.
package main

import (
	"os"

	"github.com/gosed/gosed/internal/cli"
	"github.com/gosed/gosed/internal/core"
)

func main() {
	stdio := core.DefaultStdio()
	os.Exit(cli.Run(stdio, os.Args[1:]))
}
