// Command billing is the command-line entry point: serve, migrate, totals,
// documents, export and token.
package main

import (
	"context"
	"os"

	"billing-service/internal/adapters/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
