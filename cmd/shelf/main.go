// Command shelf indexes an ebook library and searches its full text.
package main

import (
	"os"

	"github.com/custodia-labs/shelf/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
