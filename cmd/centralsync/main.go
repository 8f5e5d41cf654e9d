package main

import (
	"fmt"
	"os"

	"github.com/fieldwork-labs/centralsync/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
