package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reportmailer/internal/cli"
	"reportmailer/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		logger.Error("reportmailer failed", "err", err)
		stop()
		os.Exit(1)
	}
}
