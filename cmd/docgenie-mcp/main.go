package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/data/store"
	"github.com/akolanti/docgenie/internal/mcpServer"
	"github.com/akolanti/docgenie/internal/rag/providers"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

const version = "v1.0.0"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "docgenie.yaml", "path to an optional yaml config file")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "docgenie-mcp:", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	logger_i.InitWithWriter(cfg.Logging, os.Stderr)
	logger := logger_i.NewLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, turns, err := store.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	deps, err := providers.NewDependencies(ctx, cfg, turns)
	if err != nil {
		return err
	}
	manager := session.NewManager(deps)
	defer manager.Close(context.WithoutCancel(ctx))

	logger.Info("serving mcp tools over stdio", "version", version)
	return mcpServer.New(manager, version).Run(ctx)
}
