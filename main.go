package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sol-relay/cmd"
)

func main() {
	// .env is optional; secrets usually come from the real environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
