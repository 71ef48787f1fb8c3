package collector

import (
	"context"
	"errors"

	"StockPulse/internal/model"
)

// ErrNoBars is returned by a provider that answered without any bars.
var ErrNoBars = errors.New("no bars returned")

// Fetcher is a market data provider adapter. providerID is the identifier the
// provider understands, already resolved from the ticker.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, providerID string, window model.Window) ([]model.RawBar, error)
	Name() string
}
