package main

import (
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.NewRootCmd(version)))
}
