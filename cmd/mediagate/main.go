// File: cmd/mediagate/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Command mediagate runs the WebSocket front-end of the media-control server.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mediagate",
		Short: "WebSocket transport front-end for a media-control server",
		Long: `mediagate accepts WebSocket clients on one configured path, hands each
message to the request processor and keeps track of which connection
serves which session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
