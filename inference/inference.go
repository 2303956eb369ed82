// Package inference serves predictions from the most recent global model
// checkpoint.
package inference

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/flock/pkg/codec"
)

var (
	ErrModelUnavailable = errors.New("no model checkpoint is available")
	ErrInvalidImage     = errors.New("invalid image")
)

type Prediction struct {
	Class         int       `json:"predicted"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Round         int       `json:"round"`
}

// ModelInfo describes the checkpoint predictions are served from.
type ModelInfo struct {
	Round     int       `json:"round"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
	LoadedAt  time.Time `json:"loaded_at"`
}

type Service interface {
	// Predict classifies a PNG or JPEG encoded image.
	Predict(ctx context.Context, image []byte) (Prediction, error)

	// Model reports the checkpoint currently loaded.
	Model(ctx context.Context) (ModelInfo, error)
}

// Checkpoints is the read side of a checkpoint store.
type Checkpoints interface {
	Load(ctx context.Context) (codec.Checkpoint, error)
	ModTime() (time.Time, error)
}
