// Command chatfic - консольный клиент для совместного написания фанфиков с моделью.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := c.rootCmd().ExecuteContext(ctx)
	c.shutdown()
	if err != nil {
		return 1
	}
	return 0
}
