package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/logging"
)

const DefaultTimeout = 10 * time.Second

// Gateway dispatches embedding requests to the fetcher registered for the
// requested protocol, bounding each call with a timeout.
type Gateway struct {
	fetchers map[Protocol]Fetcher
	timeout  time.Duration
	logger   logging.Logger
}

func NewGateway(fetchers map[Protocol]Fetcher, timeout time.Duration, l logging.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		fetchers: fetchers,
		timeout:  timeout,
		logger:   l.With("module", "embedding"),
	}
}

// Fetch returns common.ErrUnsupportedProtocol when no fetcher serves protocol
// and a *ProviderError when the provider fails or does not answer in time.
func (g *Gateway) Fetch(ctx context.Context, protocol Protocol, userID int64, req Request, binaryOnly bool) (*Result, error) {
	f, ok := g.fetchers[protocol]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedProtocol, protocol)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	res, err := f.Fetch(ctx, userID, req, binaryOnly)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, common.ErrEmbeddingProvider) {
			err = &ProviderError{Message: "timeout", Err: ctx.Err()}
		}
		g.logger.Warn(ctx, "embedding fetch failed", "protocol", protocol, "user_id", userID, "error", err)
		return nil, err
	}

	g.logger.Debug(ctx, "embedding fetched", "protocol", protocol, "user_id", userID,
		"bytes", len(res.BVector), "elapsed", time.Since(start))
	return res, nil
}
