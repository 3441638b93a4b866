package main

import (
	"os"

	"github.com/iliyamo/taskboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
