// Package status carries the success/failure notifications that fetch and
// export tasks emit instead of propagating faults. Rendering the events is
// someone else's job; this package only defines the event shape and the
// sinks it can be delivered to.
package status

import (
	"time"

	"github.com/google/uuid"
)

// Level separates success notifications from failures.
type Level int32

const (
	Success Level = iota
	Failure
)

func (l Level) String() string {
	if l == Failure {
		return "failure"
	}
	return "success"
}

// Event is one status notification. ID is a stable message identifier (the
// i18n key in the original dashboard), Topic groups events by feature, and
// Detail carries a serialized error for failures.
type Event struct {
	EventID uuid.UUID `json:"eventId"`
	Level   Level     `json:"level"`
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Detail  string    `json:"detail,omitempty"`
	Mts     int64     `json:"mts"`
}

// Sink receives status events. Implementations must not block the caller
// for long and must never return the failure to it; a sink that cannot
// deliver logs and drops.
type Sink interface {
	Publish(Event)
}

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(evt Event) {
	for _, s := range f {
		s.Publish(evt)
	}
}

// NewSuccess builds a success event.
func NewSuccess(id, topic string) Event {
	return Event{
		EventID: uuid.New(),
		Level:   Success,
		ID:      id,
		Topic:   topic,
		Mts:     time.Now().UnixMilli(),
	}
}

// NewFailure builds a failure event carrying the error detail.
func NewFailure(id, topic, detail string) Event {
	return Event{
		EventID: uuid.New(),
		Level:   Failure,
		ID:      id,
		Topic:   topic,
		Detail:  detail,
		Mts:     time.Now().UnixMilli(),
	}
}
