package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// ConnectNATS opens a reconnecting NATS connection with a JetStream context.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return nc, js, nil
}

// NATSSink publishes status events to JetStream so detached UI clients can
// subscribe to them. Subjects follow report.status.{success|failure}.{topic}.
type NATSSink struct {
	js  jetstream.JetStream
	log zerolog.Logger
}

func NewNATSSink(js jetstream.JetStream, log zerolog.Logger) *NATSSink {
	return &NATSSink{js: js, log: log}
}

func (s *NATSSink) Publish(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		s.log.Error().Err(err).Str("status_id", evt.ID).Msg("marshal status event")
		return
	}

	subject := fmt.Sprintf("report.status.%s.%s", evt.Level, evt.Topic)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		// Non-fatal: the event is also visible in the log sink path.
		s.log.Warn().Err(err).Str("subject", subject).Msg("status publish failed")
	}
}

// EnsureStatusStream creates the status event stream. Events are short-lived
// notifications; a day of retention is plenty for reconnecting clients.
func EnsureStatusStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "REPORT_STATUS",
		Subjects:  []string{"report.status.>"},
		Storage:   jetstream.MemoryStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create status stream: %w", err)
	}
	return nil
}
