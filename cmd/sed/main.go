// Command sed is the busybox-applet-style entry point, kept alongside
// cmd/gosed so the binary can be built under either name.
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
