package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alphascore/alphascore/internal/application"
	"github.com/alphascore/alphascore/internal/application/cache"
	httpapi "github.com/alphascore/alphascore/internal/interfaces/http"
	"github.com/alphascore/alphascore/internal/metrics"
)

func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	configDir, _ := cmd.Flags().GetString("config")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
	rateRPS, _ := cmd.Flags().GetFloat64("rate-rps")
	rateBurst, _ := cmd.Flags().GetInt("rate-burst")

	engine, err := buildEngine(configDir)
	if err != nil {
		return err
	}

	var opts []application.PipelineOption
	if cacheTTL > 0 {
		results := cache.NewResultCache(8192, cacheTTL)
		defer results.Stop()
		opts = append(opts, application.WithCache(results))
	}

	pipeline, err := application.NewPipeline(engine, opts...)
	if err != nil {
		return err
	}

	serverConfig := httpapi.DefaultServerConfig()
	serverConfig.Host = host
	if port > 0 {
		serverConfig.Port = port
	}
	serverConfig.RateRPS = rateRPS
	serverConfig.RateBurst = rateBurst

	server, err := httpapi.NewServer(serverConfig, engine, pipeline, metrics.NewRegistry(), version)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
