package fetch

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reportd/internal/source"
	"reportd/internal/status"
	"reportd/internal/symbols"
)

// catalogDelay is the quiescence window before a triggered catalog refresh
// actually runs. Auth status can flap during login; only the state it
// settles into matters.
const catalogDelay = 1 * time.Second

// Catalog is the session-wide list of known coins and trading pairs, fetched
// from the remote source after authentication. It feeds the filter menus and
// is refreshed with only-latest-survives semantics.
type Catalog struct {
	src  source.Source
	auth source.Auth
	sink status.Sink
	log  zerolog.Logger

	mu    sync.RWMutex
	coins []string
	pairs []string

	refresh *Debounced
}

// catalogResult is the wire shape of the getSymbols result.
type catalogResult struct {
	Coins []string `json:"coins"`
	Pairs []string `json:"pairs"`
}

// NewCatalog creates a catalog refreshed after delay of quiescence; a
// non-positive delay uses the default.
func NewCatalog(src source.Source, auth source.Auth, sink status.Sink, log zerolog.Logger, delay time.Duration) *Catalog {
	if delay <= 0 {
		delay = catalogDelay
	}
	c := &Catalog{
		src:  src,
		auth: auth,
		sink: sink,
		log:  log,
	}
	c.refresh = NewDebounced(delay, c.fetch)
	return c
}

// Refresh schedules a catalog fetch after the quiescence delay. A refresh
// triggered while an earlier one is pending supersedes it.
func (c *Catalog) Refresh(ctx context.Context) {
	c.refresh.Trigger(ctx)
}

// Stop cancels any pending refresh.
func (c *Catalog) Stop() {
	c.refresh.Stop()
}

func (c *Catalog) fetch(ctx context.Context) {
	raw, err := c.src.Call(ctx, "getSymbols", c.auth, nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("symbol catalog fetch failed")
		c.sink.Publish(status.NewFailure("status.fail", "symbols.title", err.Error()))
		return
	}

	var res catalogResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.sink.Publish(status.NewFailure("status.request.error", "symbols.title", err.Error()))
		return
	}

	coins := make([]string, 0, len(res.Coins))
	for _, s := range res.Coins {
		coins = append(coins, symbols.ToInternal(s))
	}
	pairs := make([]string, 0, len(res.Pairs))
	for _, s := range res.Pairs {
		pairs = append(pairs, symbols.ToInternal(s))
	}
	slices.Sort(coins)
	slices.Sort(pairs)

	c.mu.Lock()
	// Cancelled while the call or the lock was pending: a newer refresh owns
	// the state. The check happens under the lock, so a superseded run can
	// never overwrite lists a newer run already installed.
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.coins = coins
	c.pairs = pairs
	c.mu.Unlock()

	c.log.Info().Int("coins", len(coins)).Int("pairs", len(pairs)).Msg("symbol catalog updated")
}

// Coins returns the known currency symbols.
func (c *Catalog) Coins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.coins)
}

// Pairs returns the known trading pairs.
func (c *Catalog) Pairs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.pairs)
}
