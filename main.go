package main

import (
	"os"

	"github.com/eventsphere/eventsphere/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
