package kafka

import (
	"strconv"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/segmentio/kafka-go"
)

// EnvelopeEmitter publishes envelopes partitioned by correlation id.
type EnvelopeEmitter struct {
	P *Producer
}

func (e EnvelopeEmitter) Emit(ev skips.Envelope) {
	e.P.Publish(skips.PartitionKey(ev.CorrelationID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(ev.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
