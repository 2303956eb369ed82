// Package dataset loads a participant's private MNIST partition.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path/filepath"

	"github.com/absmach/flock/pkg/fl"
	"github.com/petar/GoMNIST"
)

const (
	DefaultImagesFile         = "train-images-idx3-ubyte.gz"
	DefaultLabelsFile         = "train-labels-idx1-ubyte.gz"
	DefaultValidationFraction = 0.2
)

var errInvalidPartition = errors.New("invalid partition index")

type Sample struct {
	Pixels []float64
	Label  int
}

// Partition is the local data held by one participant.
type Partition struct {
	Train      []Sample
	Validation []Sample
}

func (p Partition) Empty() bool {
	return len(p.Train) == 0 || len(p.Validation) == 0
}

type Config struct {
	Dir                string  `env:"DIR"                 envDefault:"data/MNIST/raw"`
	ImagesFile         string  `env:"IMAGES_FILE"         envDefault:"train-images-idx3-ubyte.gz"`
	LabelsFile         string  `env:"LABELS_FILE"         envDefault:"train-labels-idx1-ubyte.gz"`
	ShardIndex         int     `env:"SHARD_INDEX"         envDefault:"0"`
	ShardCount         int     `env:"SHARD_COUNT"         envDefault:"1"`
	ValidationFraction float64 `env:"VALIDATION_FRACTION" envDefault:"0.2"`
	Seed               uint64  `env:"SEED"                envDefault:"42"`
}

// Load reads the idx files named by cfg and returns the configured shard split
// into training and validation samples. Missing files yield fl.ErrNoLocalData.
func Load(cfg Config) (Partition, error) {
	images := filepath.Join(cfg.Dir, cfg.ImagesFile)
	labels := filepath.Join(cfg.Dir, cfg.LabelsFile)

	set, err := GoMNIST.ReadSet(images, labels)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Partition{}, fmt.Errorf("%w: %w", fl.ErrNoLocalData, err)
	case err != nil:
		return Partition{}, fmt.Errorf("failed to read MNIST set from %s: %w", cfg.Dir, err)
	}

	return FromSet(set, cfg)
}

// FromSet shards set and splits the shard with a seeded shuffle.
func FromSet(set *GoMNIST.Set, cfg Config) (Partition, error) {
	count := max(cfg.ShardCount, 1)
	if cfg.ShardIndex < 0 || cfg.ShardIndex >= count {
		return Partition{}, fmt.Errorf("%w: %d of %d", errInvalidPartition, cfg.ShardIndex, count)
	}

	var samples []Sample
	for i := cfg.ShardIndex; i < set.Count(); i += count {
		img, label := set.Get(i)
		samples = append(samples, Sample{
			Pixels: Normalize(img),
			Label:  int(label),
		})
	}

	return Split(samples, cfg.ValidationFraction, cfg.Seed), nil
}

// Split shuffles samples with seed and holds out frac of them for validation.
func Split(samples []Sample, frac float64, seed uint64) Partition {
	if len(samples) == 0 {
		return Partition{}
	}
	if frac <= 0 || frac >= 1 {
		frac = DefaultValidationFraction
	}

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTrain := int(float64(len(shuffled)) * (1 - frac))

	return Partition{
		Train:      shuffled[:nTrain],
		Validation: shuffled[nTrain:],
	}
}

// Normalize maps 8-bit grayscale pixels to [0, 1].
func Normalize(raw []byte) []float64 {
	out := make([]float64, len(raw))
	for i, p := range raw {
		out[i] = float64(p) / 255
	}

	return out
}
