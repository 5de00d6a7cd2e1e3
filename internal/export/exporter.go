package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"reportd/internal/observability"
	"reportd/internal/report"
	"reportd/internal/source"
	"reportd/internal/status"
)

const exportTopic = "download.export"

// Exporter submits batched export jobs and reports their outcome. The whole
// batch either submits or reports one failure; no partial export is left
// half-applied.
type Exporter struct {
	src     source.Source
	sink    status.Sink
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewExporter(src source.Source, sink status.Sink, log zerolog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{src: src, sink: sink, log: log, metrics: metrics}
}

// submitResult is the wire shape of the getMultipleCsv result.
type submitResult struct {
	IsSendEmail  bool `json:"isSendEmail"`
	IsSaveLocaly bool `json:"isSaveLocaly"`
}

// Export compiles the requested panels into one batched job and submits it.
// The outcome is delivered exclusively through status events.
func (e *Exporter) Export(ctx context.Context, auth source.Auth, targets []report.PanelType, st SessionState) {
	req := Compile(targets, st)

	start := time.Now()
	raw, err := e.src.Call(ctx, "getMultipleCsv", auth, req)
	if err != nil {
		e.fail("status.fail", err)
		e.metrics.ObserveExport("error", len(targets), time.Since(start))
		return
	}

	var res submitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		e.fail("status.request.error", err)
		e.metrics.ObserveExport("error", len(targets), time.Since(start))
		return
	}

	switch {
	case res.IsSendEmail:
		e.sink.Publish(status.NewSuccess("download.status.email", exportTopic))
	case res.IsSaveLocaly:
		e.sink.Publish(status.NewSuccess("download.status.local", exportTopic))
	}
	e.metrics.CountStatusEvent(status.Success.String())
	e.metrics.ObserveExport("ok", len(targets), time.Since(start))
	e.log.Info().Int("panels", len(targets)).Bool("email", res.IsSendEmail).Msg("export submitted")
}

// PrepareEmail resolves the destination address for emailed exports: the
// override from the request URL when one is present and the account has an
// address on file, otherwise the account address itself. Failures clear the
// address and report through the status sink, falling back to local save.
func (e *Exporter) PrepareEmail(ctx context.Context, auth source.Auth, override string) string {
	raw, err := e.src.Call(ctx, "getEmail", auth, nil)
	if err != nil {
		e.sink.Publish(status.NewFailure("status.request.error", "download.query", err.Error()))
		e.metrics.CountStatusEvent(status.Failure.String())
		return ""
	}

	var account string
	if err := json.Unmarshal(raw, &account); err != nil {
		// the server answers false when no address is configured
		account = ""
	}
	if override != "" && account != "" {
		return override
	}
	return account
}

func (e *Exporter) fail(id string, err error) {
	detail, _ := json.Marshal(err.Error())
	e.log.Warn().Err(err).Msg("export failed")
	e.sink.Publish(status.NewFailure(id, exportTopic, string(detail)))
	e.metrics.CountStatusEvent(status.Failure.String())
}
