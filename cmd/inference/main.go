package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/absmach/flock/inference"
	"github.com/absmach/flock/inference/api"
	"github.com/absmach/flock/inference/middleware"
	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/model"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "inference"
	defHTTPPort   = "8081"
	envPrefixHTTP = "INFERENCE_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel       string `env:"INFERENCE_LOG_LEVEL"       envDefault:"info"`
	InstanceID     string `env:"INFERENCE_INSTANCE_ID"`
	CheckpointPath string `env:"INFERENCE_CHECKPOINT_PATH" envDefault:"./data/global.flck"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	newNet := func() model.Network {
		return model.NewClassifier()
	}
	svc := inference.NewService(ctx, codec.NewFileStore(cfg.CheckpointPath), newNet, logger)
	svc = middleware.Logging(logger, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
