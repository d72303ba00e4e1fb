package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/psantana5/capctl/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
