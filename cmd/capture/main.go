// Command capture is a terminal client for voicenotes. It turns dictated
// lines on stdin into titled notes and manages the other record kinds.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := NewRunner(RunnerOpts{})
	if err := NewApp(r).Run(ctx, os.Args); err != nil {
		r.logger.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}
