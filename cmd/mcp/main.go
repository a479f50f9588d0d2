// Command mcp serves the marketplace over MCP stdio so agent runtimes
// can drive registration, usage and rewards through tool calls.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/myskills/skillhub/internal/adapters/mcp"
	app "github.com/myskills/skillhub/internal/app"
	"github.com/myskills/skillhub/internal/config"
	"github.com/myskills/skillhub/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	pool, err := cfg.PoolAmount()
	if err != nil {
		os.Stderr.WriteString("invalid reward_pool: " + err.Error() + "\n")
		return
	}
	poolCap, err := cfg.PoolCap()
	if err != nil {
		os.Stderr.WriteString("invalid reward_pool_cap: " + err.Error() + "\n")
		return
	}

	// The MCP process is driven by tool calls, so the periodic
	// distribution schedule stays off here.
	opts := []app.Option{
		app.WithLogger(log),
		app.WithDataDir(cfg.DataDir),
		app.WithDefaultPool(pool),
	}
	if poolCap != nil {
		opts = append(opts, app.WithPoolCap(poolCap))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop(context.Background())

	srv := mcp.NewServer(svc)
	if err := srv.ServeStdio(); err != nil {
		log.Error(ctx, "mcp server failed", logger.Error(err))
	}
}
