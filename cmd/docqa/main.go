// Command docqa is the entry point for the document Q&A service.
// It provides a CLI interface (via Cobra) for ingesting documents and asking
// questions, plus an HTTP server exposing the same operations as a REST API.
package main

import (
	"fmt"
	"os"

	"github.com/docbase-ai/docqa-go/cmd/docqa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
