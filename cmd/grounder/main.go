package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/grounded-labs/grounder/internal/adapters/driving/cli"
)

func main() {
	// Silently ignore a missing .env file.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
