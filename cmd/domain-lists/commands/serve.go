package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/domain-lists/internal/analytics"
	"github.com/terra-clan/domain-lists/internal/api"
	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/cleanup"
	"github.com/terra-clan/domain-lists/internal/health"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	return cmd
}

func serve(parent context.Context) error {
	slog.Info("starting domain-lists",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"lists_base_url", cfg.Lists.BaseURL,
	)

	res, err := newResolver(cfg.Mapping.File)
	if err != nil {
		return fmt.Errorf("failed to load selection mapping: %w", err)
	}

	loader, err := newLoader(cfg.Lists.BaseURL)
	if err != nil {
		return err
	}

	registry := health.NewRegistry()
	registry.Register("lists", health.CheckerFunc(loader.Ping))

	var reporter analytics.Reporter = analytics.Nop{}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		sink := analytics.NewRedisSink(rdb, cfg.Analytics.Stream, cfg.Analytics.StreamMaxLen)
		registry.Register("redis", sink)

		async := analytics.NewAsyncReporter(sink, cfg.Analytics.Buffer)
		defer func() {
			if err := async.Close(); err != nil {
				slog.Error("analytics close error", "error", err)
			}
			slog.Info("analytics stopped", "dropped", async.Dropped(), "failed", async.Failed())
		}()
		reporter = async

		slog.Info("analytics enabled", "stream", cfg.Analytics.Stream)
	}

	pipeline := board.NewPipeline(res, loader,
		board.WithRadius(cfg.Pagination.Radius),
		board.WithReporter(reporter),
	)
	hub := board.NewHub()
	sweeper := cleanup.NewSweeper(hub, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTimeout)

	server := api.NewServer(cfg.Server, cfg.Pagination, pipeline, res, loader, registry, hub)
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Hijacked websocket connections are not tracked by Shutdown
		hub.CloseAll()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("domain-lists stopped")
	return nil
}
