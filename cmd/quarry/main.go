package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/quarry-labs/quarry/internal/adapters/driving/cli"
)

func main() {
	// Missing .env is fine, environment variables still apply.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
