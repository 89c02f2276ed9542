package main

import (
	"os"

	"github.com/BloggingApp/feed-service/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
