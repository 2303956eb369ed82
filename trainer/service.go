package trainer

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/dataset"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
)

const MetricTrainLoss = "train_loss"

type Config struct {
	ID        string
	BatchSize int
	Seed      uint64
}

var _ Service = (*service)(nil)

type service struct {
	id        string
	batchSize int
	net       model.Network
	opt       model.Optimizer
	data      dataset.Partition
	rng       *rand.Rand
	mu        sync.Mutex
	logger    *slog.Logger
}

func NewService(cfg Config, net model.Network, opt model.Optimizer, data dataset.Partition, logger *slog.Logger) Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &service{
		id:        cfg.ID,
		batchSize: cfg.BatchSize,
		net:       net,
		opt:       opt,
		data:      data,
		rng:       rand.New(rand.NewPCG(seed, seed>>1)),
		logger:    logger,
	}
}

func (svc *service) ID() string {
	return svc.id
}

func (svc *service) Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(svc.data.Train) == 0 {
		return fl.ClientUpdate{}, fl.ErrNoLocalData
	}
	if err := codec.Decode(global, svc.net); err != nil {
		return fl.ClientUpdate{}, err
	}

	order := svc.rng.Perm(len(svc.data.Train))
	var (
		totalLoss float64
		batches   int
	)
	for start := 0; start < len(order); start += svc.batchSize {
		if err := ctx.Err(); err != nil {
			return fl.ClientUpdate{}, err
		}
		end := min(start+svc.batchSize, len(order))

		svc.net.ZeroGrad()
		var batchLoss float64
		for _, idx := range order[start:end] {
			s := svc.data.Train[idx]
			batchLoss += svc.net.Backward(s.Pixels, s.Label)
		}
		svc.opt.Step(svc.net.Params(), end-start)

		totalLoss += batchLoss / float64(end-start)
		batches++
	}

	update := fl.ClientUpdate{
		ParticipantID: svc.id,
		Parameters:    codec.Encode(svc.net),
		SampleCount:   uint64(len(svc.data.Train)),
		Metrics: map[string]float64{
			MetricTrainLoss: totalLoss / float64(batches),
		},
	}

	svc.logger.InfoContext(ctx, "Local training completed",
		slog.String("participant_id", svc.id),
		slog.Uint64("samples", update.SampleCount),
		slog.Int("batches", batches),
		slog.Float64("train_loss", update.Metrics[MetricTrainLoss]),
	)

	return update, nil
}

func (svc *service) Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(svc.data.Validation) == 0 {
		return fl.EvaluationResult{}, fl.ErrNoLocalData
	}
	if err := codec.Decode(global, svc.net); err != nil {
		return fl.EvaluationResult{}, err
	}

	var (
		totalLoss float64
		correct   int
	)
	for i, s := range svc.data.Validation {
		if i%svc.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return fl.EvaluationResult{}, err
			}
		}
		logits := svc.net.Forward(s.Pixels)
		loss, _ := model.CrossEntropy(logits, s.Label)
		totalLoss += loss
		if model.Argmax(logits) == s.Label {
			correct++
		}
	}

	n := len(svc.data.Validation)
	res := fl.EvaluationResult{
		ParticipantID: svc.id,
		Loss:          totalLoss / float64(n),
		SampleCount:   uint64(n),
		Metrics: map[string]float64{
			fl.MetricAccuracy: float64(correct) / float64(n),
		},
	}

	svc.logger.InfoContext(ctx, "Local evaluation completed",
		slog.String("participant_id", svc.id),
		slog.Uint64("samples", res.SampleCount),
		slog.Float64("loss", res.Loss),
		slog.Float64("accuracy", res.Metrics[fl.MetricAccuracy]),
	)

	return res, nil
}

func (svc *service) Parameters(_ context.Context) (fl.ParameterSet, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return codec.Encode(svc.net), nil
}
