package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mistakeknot/liveboard/internal/config"
	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/httpapi"
	"github.com/mistakeknot/liveboard/internal/server"
	"github.com/mistakeknot/liveboard/internal/state"
	"github.com/mistakeknot/liveboard/internal/storage"
	redisslot "github.com/mistakeknot/liveboard/internal/storage/redis"
	sqliteslot "github.com/mistakeknot/liveboard/internal/storage/sqlite"
	"github.com/mistakeknot/liveboard/internal/ws"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "liveboard",
		Short:        "Shared-state broadcaster: counter, chat, and poll pushed live to every viewer",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the liveboard server (configured via environment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	options, err := config.LoadPollOptions(cfg.PollFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openSlot(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	hub := events.NewHub()
	store := state.New(kv, hub).WithVoteOptions(options).WithLogger(log)
	svc := httpapi.NewService(store, hub).WithLogger(log)
	gateway := ws.NewGateway(store, hub).WithLogger(log)
	router := httpapi.NewRouter(svc, gateway.Handler())

	srv, err := server.New(server.Config{
		Addr:       cfg.Addr,
		SocketPath: cfg.SocketPath,
		Handler:    router,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("liveboard listening", "addr", cfg.Addr, "backend", cfg.Backend)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openSlot(ctx context.Context, cfg config.Config) (storage.KV, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return redisslot.New(ctx, cfg.RedisURL)
	case config.BackendSQLite:
		return sqliteslot.New(cfg.DBPath)
	default:
		return storage.NewInMemory(), nil
	}
}
