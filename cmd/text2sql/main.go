package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/text2sql/text2sql/internal/cli/text2sqlctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := text2sqlctl.Run(ctx, os.Args[1:], text2sqlctl.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()
	os.Exit(code)
}
