package inference

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/model"
)

type service struct {
	store  Checkpoints
	newNet func() model.Network
	logger *slog.Logger

	mu      sync.Mutex
	net     model.Network
	info    ModelInfo
	modTime time.Time
}

// NewService loads the checkpoint held by store into a network built by
// newNet. A missing checkpoint is not an error; predictions fail with
// ErrModelUnavailable until one appears.
func NewService(ctx context.Context, store Checkpoints, newNet func() model.Network, logger *slog.Logger) Service {
	svc := &service{
		store:  store,
		newNet: newNet,
		logger: logger,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if err := svc.refresh(ctx); err != nil {
		logger.Warn("model checkpoint not loaded", slog.Any("error", err))
	}

	return svc
}

func (svc *service) Predict(ctx context.Context, image []byte) (Prediction, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.refresh(ctx); err != nil && svc.net == nil {
		return Prediction{}, err
	}

	side := int(math.Sqrt(float64(svc.net.InputSize())))
	input, err := Preprocess(image, side)
	if err != nil {
		return Prediction{}, err
	}

	class, probs := model.Predict(svc.net, input)

	return Prediction{
		Class:         class,
		Probabilities: probs,
		Round:         svc.info.Round,
	}, nil
}

func (svc *service) Model(ctx context.Context) (ModelInfo, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.refresh(ctx); err != nil && svc.net == nil {
		return ModelInfo{}, err
	}

	return svc.info, nil
}

// refresh reloads the checkpoint when the file changed since the last load.
// On failure the previously loaded network stays in place.
func (svc *service) refresh(ctx context.Context) error {
	modTime, err := svc.store.ModTime()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrModelUnavailable
	case err != nil:
		return err
	}
	if svc.net != nil && modTime.Equal(svc.modTime) {
		return nil
	}

	cp, err := svc.store.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrModelUnavailable
		}
		svc.logger.Warn("failed to reload model checkpoint", slog.Any("error", err))

		return err
	}

	net := svc.newNet()
	if err := codec.Decode(cp.Parameters, net); err != nil {
		svc.logger.Warn("checkpoint does not fit the model", slog.Any("error", err))

		return fmt.Errorf("load checkpoint: %w", err)
	}

	svc.net = net
	svc.modTime = modTime
	svc.info = ModelInfo{
		Round:     cp.Round,
		Digest:    cp.Parameters.Digest(),
		CreatedAt: cp.CreatedAt,
		LoadedAt:  time.Now(),
	}
	svc.logger.Info("model checkpoint loaded", slog.Int("round", cp.Round), slog.String("digest", svc.info.Digest))

	return nil
}
