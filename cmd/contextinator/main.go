// Command contextinator parses, embeds, and indexes a repository into a
// vector store for semantic search, symbol lookup, grep, and file
// reconstruction.
package main

import "github.com/contextinator/contextinator/internal/cli"

func main() {
	cli.Execute()
}
