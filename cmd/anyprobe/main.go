package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/streamkit/probecmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := probecmd.NewCmd(ctx).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
