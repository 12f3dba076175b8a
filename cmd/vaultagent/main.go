package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vaultkeeper/internal/agent"
	"github.com/dmitrijs2005/vaultkeeper/internal/cli"
	"github.com/dmitrijs2005/vaultkeeper/internal/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/session"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger := logging.New(os.Stderr, cfg.LogLevel)
	sess := session.New(session.WithLogger(logger))

	pw, err := cli.GetPassword(os.Stderr, fmt.Sprintf("Master password for %s", cfg.VaultPath))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if _, err := sess.OpenFile(ctx, cfg.VaultPath, pw); err != nil {
		log.Fatalf("failed to open vault: %v", err)
	}

	srv := agent.NewServer(sess, cfg.AutoLockAfter, logger)
	if err := srv.Run(ctx, cfg.AgentSocket); err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}

}
