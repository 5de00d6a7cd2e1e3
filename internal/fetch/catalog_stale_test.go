package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"reportd/internal/source"
	"reportd/internal/testutil"
)

func TestCatalogFetch_SupersededRunDoesNotApply(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getSymbols", `{"coins":["USD"],"pairs":["BTCUSD"]}`)
	src.Respond("getSymbols", `{"coins":["ETH"],"pairs":["ETHUSD"]}`)

	c := NewCatalog(src, source.Auth{}, testutil.NewCollectSink(), zerolog.Nop(), time.Millisecond)
	defer c.Stop()

	c.fetch(context.Background())
	if got := c.Coins(); len(got) != 1 || got[0] != "usd" {
		t.Fatalf("coins after first fetch: got %v, want [usd]", got)
	}

	// A run whose context was cancelled mid-flight must not install its
	// result over the one already in place.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.fetch(ctx)

	if got := c.Coins(); len(got) != 1 || got[0] != "usd" {
		t.Errorf("superseded run overwrote catalog: got %v, want [usd]", got)
	}
	if got := c.Pairs(); len(got) != 1 || got[0] != "btcusd" {
		t.Errorf("superseded run overwrote pairs: got %v, want [btcusd]", got)
	}
}
