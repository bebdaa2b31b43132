package main

import (
	"os"

	"github.com/YoshitsuguKoike/evolve/internal/interface/cli"
)

func main() {
	os.Exit(cli.Execute())
}
