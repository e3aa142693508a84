// Package events publishes alert lifecycle transitions to Kafka so
// downstream consumers (dashboards, archival, paging) see every create,
// update and delete without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/linnemanlabs/stormwatch/internal/alert"
	"github.com/linnemanlabs/stormwatch/internal/lifecycle"
)

// Lifecycle transition kinds carried in the event envelope.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Event is the wire envelope for one record transition.
type Event struct {
	Kind       string        `json:"kind"`
	RunID      string        `json:"run_id"`
	Record     *alert.Record `json:"record"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher writes lifecycle events to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger log.Logger
}

// NewPublisher creates a producer for the lifecycle topic.
func NewPublisher(brokers []string, topic string, logger log.Logger) *Publisher {
	if logger == nil {
		logger = log.Nop()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishResult emits one event per transition in an evolution result, in a
// single batched write. Publishing is best-effort: a broker failure is
// reported but must not fail the run that produced the result.
func (p *Publisher) PublishResult(ctx context.Context, res *lifecycle.Result, now time.Time) error {
	var msgs []kafkago.Message

	appendKind := func(kind string, records []*alert.Record) error {
		for _, r := range records {
			msg, err := serializeEvent(Event{Kind: kind, RunID: res.RunID, Record: r, OccurredAt: now})
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	}

	if err := appendKind(KindCreated, res.Created); err != nil {
		return err
	}
	if err := appendKind(KindUpdated, res.Updated); err != nil {
		return err
	}
	if err := appendKind(KindDeleted, res.Deleted); err != nil {
		return err
	}

	if len(msgs) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish lifecycle events: %w", err)
	}
	p.logger.Info(ctx, "lifecycle events published", "run_id", res.RunID, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeEvent marshals an event into a Kafka message keyed by record ID so
// a record's transitions land on one partition in order.
func serializeEvent(ev Event) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize lifecycle event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.Record.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "run_id", Value: []byte(ev.RunID)},
		},
	}, nil
}
