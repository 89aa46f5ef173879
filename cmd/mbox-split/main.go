// mbox-split: CLI tool to split a large mbox archive into smaller archives.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaronlippold/mbox-split/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
