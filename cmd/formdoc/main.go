package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-formdoc/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "formdoc:", err)
		os.Exit(1)
	}
}
