// Command rumdl is a high-performance Markdown linter and formatter.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rumdl-go/rumdl/cmd/rumdl/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "rumdl:", err)
		os.Exit(1)
	}
}
