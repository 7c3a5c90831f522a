package main

import (
	"os"

	"github.com/couchcryptid/station-climate-etl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
