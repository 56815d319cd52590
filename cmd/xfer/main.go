// Command xfer uploads and copies objects to S3-compatible stores with
// resumable multipart transfers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/cmd/xfer/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCommand(cmd.DefaultClientFactory).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
