// Package fetch runs the network side of the collection stores: when a
// pagination step walks past the buffered entries, a fetcher issues the next
// page request, parses the batch, and feeds it back into the session. Every
// failure ends in a status event; nothing propagates as a fault.
package fetch

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"reportd/internal/collection"
	"reportd/internal/observability"
	"reportd/internal/report"
	"reportd/internal/source"
	"reportd/internal/status"
	"reportd/internal/symbols"
)

// Fetcher fetches history pages for one session.
type Fetcher struct {
	src     source.Source
	session *collection.Session
	auth    source.Auth
	sink    status.Sink
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewFetcher(
	src source.Source,
	session *collection.Session,
	auth source.Auth,
	sink status.Sink,
	log zerolog.Logger,
	metrics *observability.Metrics,
) *Fetcher {
	return &Fetcher{
		src:     src,
		session: session,
		auth:    auth,
		sink:    sink,
		log:     log,
		metrics: metrics,
	}
}

// FetchPage fetches the next history page for a panel and applies it to the
// session. On failure the pending fetch is cleared, the buffered entries are
// kept, and a failure status event is emitted.
func (f *Fetcher) FetchPage(ctx context.Context, panel report.PanelType) {
	spec := report.Spec(panel)
	params := f.pageParams(panel, spec)

	start := time.Now()
	raw, err := f.src.Call(ctx, spec.DataMethod, f.auth, params)
	if err != nil {
		f.fail(panel, "status.fail", err)
		f.metrics.ObserveFetch(string(panel), "error", time.Since(start))
		return
	}

	batch, err := collection.ParseBatch(spec, raw)
	if err != nil {
		f.fail(panel, "status.request.error", err)
		f.metrics.ObserveFetch(string(panel), "parse_error", time.Since(start))
		return
	}

	f.session.Update(panel, batch)
	f.metrics.ObserveFetch(string(panel), "ok", time.Since(start))
	f.log.Debug().
		Str("panel", string(panel)).
		Int("records", len(batch)).
		Msg("page fetched")
}

// pageParams derives the query for the next page: the global time range,
// narrowed by the fetch-older boundary once at least one page is buffered,
// scoped to the panel's target filters.
func (f *Fetcher) pageParams(panel report.PanelType, spec report.PanelSpec) source.PageParams {
	prefs := f.session.Prefs()
	snap := f.session.Snapshot(panel)

	params := source.PageParams{
		Start: prefs.Start,
		End:   prefs.End,
		Limit: spec.QueryLimit,
	}
	if snap.SmallestMts > 0 {
		params.End = snap.SmallestMts
	}

	targets := snap.TargetFilters
	if len(targets) == 0 {
		return params
	}
	switch spec.FilterKind {
	case report.FilterIDs:
		params.ID = parseIDs(targets)
	case report.FilterPairs:
		params.Symbol = symbols.FormatRawPairs(targets)
	default:
		params.Symbol = targets
	}
	return params
}

func parseIDs(targets []string) []int64 {
	ids := make([]int64, 0, len(targets))
	for _, t := range targets {
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *Fetcher) fail(panel report.PanelType, id string, err error) {
	f.session.FetchFail(panel)
	f.log.Warn().Err(err).Str("panel", string(panel)).Msg("page fetch failed")
	f.sink.Publish(status.NewFailure(id, string(panel)+".title", err.Error()))
	f.metrics.CountStatusEvent(status.Failure.String())
}
