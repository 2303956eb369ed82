package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/coordinator/api"
	clienthttp "github.com/absmach/flock/coordinator/clients/http"
	clientmqtt "github.com/absmach/flock/coordinator/clients/mqtt"
	"github.com/absmach/flock/coordinator/middleware"
	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/dataset"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
	"github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/pkg/participant"
	"github.com/absmach/flock/pkg/storage"
	"github.com/absmach/flock/trainer"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName          = "coordinator"
	defHTTPPort      = "7070"
	envPrefixHTTP    = "COORDINATOR_HTTP_"
	envPrefixDataset = "COORDINATOR_DATASET_"
	pathEnv          = ".env"
)

type envConfig struct {
	LogLevel             string        `env:"COORDINATOR_LOG_LEVEL"              envDefault:"info"`
	InstanceID           string        `env:"COORDINATOR_INSTANCE_ID"`
	MQTTAddress          string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS              uint8         `env:"COORDINATOR_MQTT_QOS"               envDefault:"1"`
	MQTTTimeout          time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"           envDefault:"30s"`
	ClientID             string        `env:"COORDINATOR_CLIENT_ID"`
	ClientKey            string        `env:"COORDINATOR_CLIENT_KEY"`
	DomainID             string        `env:"COORDINATOR_DOMAIN_ID"              envDefault:"flock"`
	ChannelID            string        `env:"COORDINATOR_CHANNEL_ID"             envDefault:"training"`
	CheckpointPath       string        `env:"COORDINATOR_CHECKPOINT_PATH"        envDefault:"./data/global.flck"`
	CheckpointEvery      int           `env:"COORDINATOR_CHECKPOINT_EVERY"       envDefault:"0"`
	Resume               bool          `env:"COORDINATOR_RESUME"                 envDefault:"true"`
	MaxConcurrency       int           `env:"COORDINATOR_MAX_CONCURRENCY"        envDefault:"16"`
	RetryInitialInterval time.Duration `env:"COORDINATOR_RETRY_INITIAL_INTERVAL" envDefault:"1s"`
	RetryMaxInterval     time.Duration `env:"COORDINATOR_RETRY_MAX_INTERVAL"     envDefault:"30s"`
	TrainerTimeout       time.Duration `env:"COORDINATOR_TRAINER_TIMEOUT"        envDefault:"10m"`
	Participants         []string      `env:"COORDINATOR_PARTICIPANTS"           envSeparator:","`
	LocalTrainers        int           `env:"COORDINATOR_LOCAL_TRAINERS"         envDefault:"0"`
	Storage              storage.Config
	OTELURL              url.URL `env:"COORDINATOR_OTEL_URL"`
	TraceRatio           float64 `env:"COORDINATOR_TRACE_RATIO" envDefault:"0"`
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

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("type", cfg.Storage.Type), slog.Any("error", err))

		return
	}
	if repos.Closer != nil {
		defer repos.Closer.Close()
	}

	dialers := coordinator.Dialers{
		participant.TransportHTTP: clienthttp.NewDialer(&http.Client{Timeout: cfg.TrainerTimeout}),
	}

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		pubsub, err = mqtt.NewPubSub(mqtt.Config{
			URL:      cfg.MQTTAddress,
			QoS:      cfg.MQTTQoS,
			ID:       svcName + "-" + cfg.InstanceID,
			Username: cfg.ClientID,
			Password: cfg.ClientKey,
			Timeout:  cfg.MQTTTimeout,
			Encoding: mqtt.CBOR,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer pubsub.Disconnect(context.Background())

		md, err := clientmqtt.NewDialer(ctx, pubsub, cfg.DomainID, cfg.ChannelID, logger)
		if err != nil {
			logger.Error("failed to subscribe to participant responses", slog.String("error", err.Error()))

			return
		}
		defer md.Close(context.Background())
		dialers[participant.TransportMQTT] = md
	}

	if cfg.LocalTrainers > 0 {
		ld, err := newLocalDialer(cfg.LocalTrainers, logger)
		if err != nil {
			logger.Error("failed to start local trainers", slog.Any("error", err))

			return
		}
		dialers[participant.TransportLocal] = ld
		if err := register(ctx, repos.Participants, ld.Participants()...); err != nil {
			logger.Error("failed to register local trainers", slog.Any("error", err))

			return
		}
	}

	if err := register(ctx, repos.Participants, staticParticipants(cfg.Participants)...); err != nil {
		logger.Error("failed to register configured participants", slog.Any("error", err))

		return
	}

	store := codec.NewFileStore(cfg.CheckpointPath)
	svcCfg := coordinator.Config{
		DomainID:             cfg.DomainID,
		ChannelID:            cfg.ChannelID,
		Policy:               coordinator.EveryNRounds(cfg.CheckpointEvery),
		MaxConcurrency:       cfg.MaxConcurrency,
		RetryInitialInterval: cfg.RetryInitialInterval,
		RetryMaxInterval:     cfg.RetryMaxInterval,
	}
	if cfg.Resume {
		svcCfg.InitialParameters = resumeFrom(store, logger)
	}
	if pubsub != nil {
		svcCfg.Notifier = coordinator.NewMQTTNotifier(pubsub, cfg.DomainID, cfg.ChannelID)
	}

	svc := coordinator.NewService(svcCfg, repos.Rounds, repos.Participants, dialers, store, pubsub, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		logger.Error("failed to subscribe to participant announcements", slog.String("error", err.Error()))

		return
	}

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

// newLocalDialer starts n in-process trainers, each holding one shard of the
// dataset configured with the COORDINATOR_DATASET_ prefix.
func newLocalDialer(n int, logger *slog.Logger) (*coordinator.LocalDialer, error) {
	trainers := make([]trainer.Service, 0, n)
	for i := range n {
		dcfg := dataset.Config{}
		if err := env.ParseWithOptions(&dcfg, env.Options{Prefix: envPrefixDataset}); err != nil {
			return nil, err
		}
		dcfg.ShardIndex = i
		dcfg.ShardCount = n

		data, err := dataset.Load(dcfg)
		switch {
		case errors.Is(err, fl.ErrNoLocalData):
			logger.Warn("local trainer has no data", slog.Int("shard", i), slog.Any("error", err))
		case err != nil:
			return nil, err
		}

		net := model.NewClassifier()
		tcfg := trainer.Config{ID: "local-" + strconv.Itoa(i), Seed: dcfg.Seed + uint64(i)}
		trainers = append(trainers, trainer.NewService(tcfg, net, model.NewAdam(model.DefaultAdamConfig()), data, logger))
	}

	return coordinator.NewLocalDialer(trainers...), nil
}

func staticParticipants(addresses []string) []participant.Participant {
	now := time.Now()
	ps := make([]participant.Participant, 0, len(addresses))
	for _, addr := range addresses {
		if addr == "" {
			continue
		}
		ps = append(ps, participant.Participant{
			ID:           addr,
			Name:         addr,
			Address:      addr,
			Transport:    participant.TransportHTTP,
			Static:       true,
			RegisteredAt: now,
		})
	}

	return ps
}

func register(ctx context.Context, repo storage.ParticipantRepository, ps ...participant.Participant) error {
	for _, p := range ps {
		err := repo.Create(ctx, p)
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			err = repo.Update(ctx, p)
		}
		if err != nil {
			return fmt.Errorf("participant %q: %w", p.ID, err)
		}
	}

	return nil
}

// resumeFrom seeds round one from an existing checkpoint. Without one the
// service asks the participants for their parameters.
func resumeFrom(store codec.CheckpointStore, logger *slog.Logger) coordinator.ParametersProvider {
	cp, err := store.Load(context.Background())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		logger.Warn("ignoring unreadable checkpoint", slog.Any("error", err))

		return nil
	}
	logger.Info("resuming from checkpoint", slog.Int("round", cp.Round))

	return func(context.Context) (fl.ParameterSet, error) {
		return cp.Parameters.Clone(), nil
	}
}
