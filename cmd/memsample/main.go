package main

import "github.com/danpilch/memsample/pkg/cli"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.SetVersion(version, buildDate, gitCommit)
	cli.Execute()
}
