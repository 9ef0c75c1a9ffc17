package scheduler

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/localmind/agentkernel/internal/types"
)

// Announcer publishes a best-effort, fire-and-forget notification when a
// batch is dispatched. It is never on the dispatch hot path: Announce must
// not block Next for longer than it takes to enqueue the write.
type Announcer interface {
	Announce(b *types.BatchDescriptor)
}

// dispatchEvent is the wire shape published to the announce topic.
type dispatchEvent struct {
	BatchID   string `json:"batch_id"`
	Class     string `json:"class"`
	DispatchT string `json:"dispatched_at"`
}

// KafkaAnnouncer publishes dispatch events to a Kafka topic using
// github.com/segmentio/kafka-go, grounded on the orchestrator's existing
// producer usage for command/response envelopes. Write failures are logged
// by the caller-supplied logger function, never returned: announcements are
// observability only and must never affect scheduling.
type KafkaAnnouncer struct {
	Writer *kafka.Writer
	OnErr  func(err error)
	Now    func() time.Time
}

// NewKafkaAnnouncer constructs an announcer writing to the given topic.
func NewKafkaAnnouncer(brokers []string, topic string, onErr func(error)) *KafkaAnnouncer {
	return &KafkaAnnouncer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			Async:        true,
			RequiredAcks: kafka.RequireNone,
			Completion: func(_ []kafka.Message, err error) {
				if err != nil && onErr != nil {
					onErr(err)
				}
			},
		},
		OnErr: onErr,
		Now:   time.Now,
	}
}

func (a *KafkaAnnouncer) Announce(b *types.BatchDescriptor) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	ev := dispatchEvent{
		BatchID:   types.FormatID(b.Metadata.ID),
		Class:     b.Metadata.Class.String(),
		DispatchT: now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		if a.OnErr != nil {
			a.OnErr(err)
		}
		return
	}
	// Async writer: WriteMessages enqueues and returns without waiting for
	// the broker; delivery errors surface later via Writer.Completion, which
	// NewKafkaAnnouncer routes to OnErr. We still guard the call itself so a
	// closed writer never panics the scheduler.
	if err := a.Writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(ev.BatchID),
		Value: payload,
	}); err != nil && a.OnErr != nil {
		a.OnErr(err)
	}
}
