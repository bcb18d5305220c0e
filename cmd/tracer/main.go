package main

import (
	"os"

	"github.com/dawnworks/tracer/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
