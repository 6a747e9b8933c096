package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sellpoint/sellpoint/internal/engine"
	httpapi "github.com/sellpoint/sellpoint/internal/interfaces/http"
)

func runServe(cmd *cobra.Command, _ []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	policies, err := policiesFromCmd(cmd)
	if err != nil {
		return err
	}

	cfg := httpapi.DefaultServerConfig()
	cfg.Host = host
	cfg.Port = port

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	handlers := httpapi.NewHandlers(engine.New(policies), snapshotSourceFromCmd(cmd), version)
	server := httpapi.NewServer(cfg, handlers, registry)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
