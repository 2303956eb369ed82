package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/flock/pkg/dataset"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
	"github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/trainer"
	"github.com/absmach/flock/trainer/api"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	svcName          = "trainer"
	defHTTPPort      = "7071"
	envPrefixHTTP    = "TRAINER_HTTP_"
	envPrefixDataset = "TRAINER_DATASET_"
	pathEnv          = ".env"
)

type envConfig struct {
	LogLevel           string        `env:"TRAINER_LOG_LEVEL"           envDefault:"info"`
	ID                 string        `env:"TRAINER_ID"`
	Name               string        `env:"TRAINER_NAME"`
	BatchSize          int           `env:"TRAINER_BATCH_SIZE"          envDefault:"32"`
	Seed               uint64        `env:"TRAINER_SEED"                envDefault:"0"`
	AdvertiseAddress   string        `env:"TRAINER_ADVERTISE_ADDRESS"`
	MQTTAddress        string        `env:"TRAINER_MQTT_ADDRESS"`
	MQTTQoS            uint8         `env:"TRAINER_MQTT_QOS"            envDefault:"1"`
	MQTTTimeout        time.Duration `env:"TRAINER_MQTT_TIMEOUT"        envDefault:"30s"`
	ClientID           string        `env:"TRAINER_CLIENT_ID"`
	ClientKey          string        `env:"TRAINER_CLIENT_KEY"`
	DomainID           string        `env:"TRAINER_DOMAIN_ID"           envDefault:"flock"`
	ChannelID          string        `env:"TRAINER_CHANNEL_ID"          envDefault:"training"`
	LivelinessInterval time.Duration `env:"TRAINER_LIVELINESS_INTERVAL" envDefault:"10s"`
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

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Name == "" {
		cfg.Name = namegenerator.NewGenerator().Generate()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("participant_id", cfg.ID), slog.String("name", cfg.Name))
	slog.SetDefault(logger)

	dcfg := dataset.Config{}
	if err := env.ParseWithOptions(&dcfg, env.Options{Prefix: envPrefixDataset}); err != nil {
		logger.Error("failed to load dataset configuration", slog.Any("error", err))

		return
	}
	data, err := dataset.Load(dcfg)
	switch {
	case errors.Is(err, fl.ErrNoLocalData):
		logger.Warn("no local data; fit and evaluate will be rejected", slog.Any("error", err))
	case err != nil:
		logger.Error("failed to load dataset", slog.Any("error", err))

		return
	default:
		logger.Info("dataset loaded", slog.Int("train", len(data.Train)), slog.Int("validation", len(data.Validation)))
	}

	svc := trainer.NewService(
		trainer.Config{ID: cfg.ID, BatchSize: cfg.BatchSize, Seed: cfg.Seed},
		model.NewClassifier(),
		model.NewAdam(model.DefaultAdamConfig()),
		data,
		logger,
	)

	if cfg.MQTTAddress != "" {
		pubsub, err := mqtt.NewPubSub(mqtt.Config{
			URL:       cfg.MQTTAddress,
			QoS:       cfg.MQTTQoS,
			ID:        cfg.ID,
			Username:  cfg.ClientID,
			Password:  cfg.ClientKey,
			DomainID:  cfg.DomainID,
			ChannelID: cfg.ChannelID,
			Timeout:   cfg.MQTTTimeout,
			Encoding:  mqtt.CBOR,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer pubsub.Disconnect(context.Background())

		listener := trainer.NewMQTTListener(svc, pubsub, trainer.MQTTConfig{
			DomainID:           cfg.DomainID,
			ChannelID:          cfg.ChannelID,
			Name:               cfg.Name,
			Address:            cfg.AdvertiseAddress,
			LivelinessInterval: cfg.LivelinessInterval,
		}, logger)
		g.Go(func() error {
			return listener.Run(ctx)
		})
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.ID), logger)

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
