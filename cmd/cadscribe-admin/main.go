package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/r9s-ai/cadscribe/internal/admin/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
