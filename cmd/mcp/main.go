package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/docs-backend/internal/adapters/mcp"
	"github.com/kirillkom/docs-backend/internal/bootstrap"
	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/observability/logging"
)

const serviceName = "docs-mcp"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("dotenv_error", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	tools := mcpadapter.NewTools(app.Accounts, app.Documents, app.Summarizer)
	if err := server.ServeStdio(tools.NewServer()); err != nil {
		slog.Error("mcp_server_error", "error", err)
	}
}
