// Command racctl computes RAC descriptors from the command line.
package main

import (
	"os"

	"github.com/turtacn/RAC-Descriptors/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	os.Exit(cli.Execute(cli.Dependencies{}, os.Args[1:], os.Stdout, os.Stderr))
}
