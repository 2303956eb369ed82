package api

import (
	"errors"
	"time"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/api"
	apiutil "github.com/absmach/supermq/api/http/util"
)

var (
	errInvalidMaxRounds = errors.New("max_rounds must be positive")
	errInvalidRetries   = errors.New("max_round_retries must not be negative")
	errInvalidTimeout   = errors.New("invalid collection_timeout")
	errInvalidIndex     = errors.New("invalid round index")
	errLimitSize        = errors.New("invalid limit size")
)

type startSessionReq struct {
	MaxRounds         int      `json:"max_rounds"`
	Participants      []string `json:"participants,omitempty"`
	CollectionTimeout string   `json:"collection_timeout,omitempty"`
	MaxRoundRetries   int      `json:"max_round_retries,omitempty"`
}

func (req startSessionReq) validate() error {
	if req.MaxRounds <= 0 {
		return errInvalidMaxRounds
	}
	if req.MaxRoundRetries < 0 {
		return errInvalidRetries
	}
	if req.CollectionTimeout != "" {
		d, err := time.ParseDuration(req.CollectionTimeout)
		if err != nil || d <= 0 {
			return errInvalidTimeout
		}
	}

	return nil
}

func (req startSessionReq) config() coordinator.SessionConfig {
	cfg := coordinator.SessionConfig{
		MaxRounds:       req.MaxRounds,
		Participants:    req.Participants,
		MaxRoundRetries: req.MaxRoundRetries,
	}
	if req.CollectionTimeout != "" {
		cfg.CollectionTimeout, _ = time.ParseDuration(req.CollectionTimeout)
	}

	return cfg
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type roundReq struct {
	index int
}

func (r *roundReq) validate() error {
	if r.index < 1 {
		return errInvalidIndex
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	if e.limit == 0 || e.limit > api.MaxLimitSize {
		return errLimitSize
	}

	return nil
}
