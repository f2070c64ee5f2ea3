package outbox

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/md-rashed-zaman/rolodex/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

const kafkaTopicPrefix = "outbox."

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher relays events to the topic outbox.{event_type}, keyed by
// party id so one party's events stay on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, rec Record) error {
	msg := kafka.Message{
		Topic: kafkaTopicPrefix + rec.EventType,
		Key:   partyKey(rec.Payload),
		Value: rec.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(strconv.FormatInt(rec.EventID, 10))},
			{Key: "event_type", Value: []byte(rec.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func partyKey(payload []byte) []byte {
	var body struct {
		PartyID json.Number `json:"party_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.PartyID == "" {
		return nil
	}
	return []byte(body.PartyID.String())
}
