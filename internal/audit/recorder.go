package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-pos-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
)

// Recorder publishes audit events after a commit. Strictly fire-and-forget: a
// sale that committed is never failed because the audit pipe is down.
type Recorder struct {
	Producer *kafkax.Producer
	Service  string
}

func (r *Recorder) Record(actor pos.Actor, module, detail string, extra any) {
	if r == nil || r.Producer == nil {
		return
	}

	var raw json.RawMessage
	if extra != nil {
		b, err := json.Marshal(extra)
		if err != nil {
			log.Printf("audit: marshal extra: %v", err)
		} else {
			raw = b
		}
	}

	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventRecorded,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     r.Service,
		Payload: kafkax.MustMarshal(RecordedPayload{
			ActorID:   actor.ID,
			ActorName: actor.Name,
			Module:    module,
			Detail:    detail,
			Extra:     raw,
		}),
	}
	r.Producer.Publish(PartitionKey(actor.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventRecorded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
