// cmd/bounty/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/bounty/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Warn().Msg("Interrupt received, closing browser...")
		// The running command sees ctx cancel and returns; the browser is
		// released here too in case a page load is still holding it
		cli.Shutdown()
	}()

	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
