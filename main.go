package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gi8lino/jirafind/internal/app"
)

var Version = "dev"

func main() {
	if err := app.Run(context.Background(), Version, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err) // nolint:errcheck
		os.Exit(1)
	}
}
