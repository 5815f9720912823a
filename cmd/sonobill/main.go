package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gyeh/sonobill/internal/exitcode"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
