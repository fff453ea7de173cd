// Command server runs the HTTP API. It is equivalent to "billing serve".
package main

import (
	"context"
	"os"

	"billing-service/internal/adapters/cli"
)

func main() {
	os.Args = append([]string{os.Args[0], "serve"}, os.Args[1:]...)
	os.Exit(cli.Execute(context.Background()))
}
