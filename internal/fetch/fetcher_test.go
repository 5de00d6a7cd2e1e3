package fetch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"reportd/internal/collection"
	"reportd/internal/fetch"
	"reportd/internal/report"
	"reportd/internal/source"
	"reportd/internal/status"
	"reportd/internal/testutil"
)

func newFetcher(src source.Source, session *collection.Session, sink status.Sink) *fetch.Fetcher {
	return fetch.NewFetcher(src, session, source.Auth{APIKey: "k"}, sink, zerolog.Nop(), nil)
}

func TestFetchPage_AppliesBatch(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getLedgers", `[
		{"id": 1, "mts": 1000, "currency": "USD"},
		{"id": 2, "mts": 999, "currency": "BTC"}
	]`)
	session := collection.NewSession()
	f := newFetcher(src, session, testutil.NewCollectSink())

	f.FetchPage(context.Background(), report.Ledgers)

	snap := session.Snapshot(report.Ledgers)
	if snap.TotalBuffered != 2 {
		t.Fatalf("buffered: got %d, want 2", snap.TotalBuffered)
	}
	if !snap.DataReceived {
		t.Error("dataReceived should be set")
	}
	if snap.SmallestMts != 998 {
		t.Errorf("smallestMts: got %d, want 998", snap.SmallestMts)
	}
}

func TestFetchPage_ParamsUseFetchOlderBoundary(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getLedgers", `[{"id": 1, "mts": 1000, "currency": "USD"}]`)
	src.Respond("getLedgers", `[]`)
	session := collection.NewSession()
	session.SetTimeRange(100, 2000)
	f := newFetcher(src, session, testutil.NewCollectSink())

	f.FetchPage(context.Background(), report.Ledgers)
	f.FetchPage(context.Background(), report.Ledgers)

	calls := src.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(calls))
	}
	first := calls[0].Params.(source.PageParams)
	if first.Start != 100 || first.End != 2000 {
		t.Errorf("first call range: got [%d,%d], want [100,2000]", first.Start, first.End)
	}
	second := calls[1].Params.(source.PageParams)
	if second.End != 999 {
		t.Errorf("second call must use smallestMts boundary: got end=%d, want 999", second.End)
	}
	if second.Limit != report.Spec(report.Ledgers).QueryLimit {
		t.Errorf("limit: got %d, want %d", second.Limit, report.Spec(report.Ledgers).QueryLimit)
	}
}

func TestFetchPage_FormatsPairFilters(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getTrades", `[]`)
	session := collection.NewSession()
	session.AddFilter(report.Trades, "btcusd")
	f := newFetcher(src, session, testutil.NewCollectSink())

	f.FetchPage(context.Background(), report.Trades)

	call, ok := src.LastCall()
	if !ok {
		t.Fatal("no call recorded")
	}
	params := call.Params.(source.PageParams)
	if len(params.Symbol) != 1 || params.Symbol[0] != "tBTCUSD" {
		t.Errorf("symbol: got %v, want [tBTCUSD]", params.Symbol)
	}
}

func TestFetchPage_AuditFiltersAreIDs(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getPositionsAudit", `[]`)
	session := collection.NewSession()
	session.SetFilters(report.PositionsAudit, []string{"4412", "not-a-number"})
	f := newFetcher(src, session, testutil.NewCollectSink())

	f.FetchPage(context.Background(), report.PositionsAudit)

	call, _ := src.LastCall()
	params := call.Params.(source.PageParams)
	if len(params.ID) != 1 || params.ID[0] != 4412 {
		t.Errorf("ids: got %v, want [4412]", params.ID)
	}
}

func TestFetchPage_FailureEmitsStatusEvent(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Fail("getLedgers", errors.New("connection refused"))
	sink := testutil.NewCollectSink()
	session := collection.NewSession()
	session.Update(report.Ledgers, []collection.Entry{{ID: 1, Mts: 1000, Symbol: "usd"}})
	session.FetchNext(report.Ledgers, 2)
	f := newFetcher(src, session, sink)

	f.FetchPage(context.Background(), report.Ledgers)

	snap := session.Snapshot(report.Ledgers)
	if snap.PageLoading {
		t.Error("pageLoading should clear on failure")
	}
	if snap.TotalBuffered != 1 {
		t.Errorf("failure must not roll back entries: got %d, want 1", snap.TotalBuffered)
	}
	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].Level != status.Failure || events[0].ID != "status.fail" {
		t.Errorf("event: got %+v", events[0])
	}
	if events[0].Detail == "" {
		t.Error("failure event should carry the error detail")
	}
}

func TestFetchPage_MalformedBatchEmitsStatusEvent(t *testing.T) {
	src := testutil.NewFakeSource()
	src.Respond("getLedgers", `{"not": "an array"}`)
	sink := testutil.NewCollectSink()
	session := collection.NewSession()
	f := newFetcher(src, session, sink)

	f.FetchPage(context.Background(), report.Ledgers)

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].ID != "status.request.error" {
		t.Errorf("event id: got %q, want %q", events[0].ID, "status.request.error")
	}
}
