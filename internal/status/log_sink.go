package status

import "github.com/rs/zerolog"

// LogSink writes status events to the structured log. It is the default sink
// when no message broker is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(evt Event) {
	e := s.log.Info()
	if evt.Level == Failure {
		e = s.log.Warn()
	}
	e.Str("status_id", evt.ID).
		Str("topic", evt.Topic).
		Str("detail", evt.Detail).
		Msg("status event")
}
