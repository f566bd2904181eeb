package main

import (
	"fmt"
	"os"

	"studyspace/backend/services/node-simulator/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	if err := NewCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
