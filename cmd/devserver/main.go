package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/weelo-captain/internal/devserver"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := devserver.LoadConfig(os.Args[1:])
	logger, err := logging.NewZapLogger("info")
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := devserver.New(cfg, logger).Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
