package main

import (
	"os"

	"github.com/rustyeddy/nodepnl/cmd/nodepnl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
