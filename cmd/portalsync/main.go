package main

import (
	"context"
	"os"
	"os/signal"
	"portalsync/cmd/portalsync/commands"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
