package main

import (
	"os"

	"github.com/kislerdm/dk-utils/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
