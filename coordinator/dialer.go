package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/flock/pkg/participant"
)

var errUnsupportedTransport = errors.New("unsupported participant transport")

// Dialers routes each participant to the Dialer of its transport.
type Dialers map[participant.Transport]Dialer

func (d Dialers) Dial(ctx context.Context, p participant.Participant) (Client, error) {
	dialer, ok := d[p.Transport]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnsupportedTransport, p.Transport)
	}

	return dialer.Dial(ctx, p)
}
