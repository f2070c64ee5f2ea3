package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/rolodex/libs/kafkax"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	pub := NewRedisStreamPublisher(rdb)
	require.NoError(t, pub.Publish(ctx, Record{EventID: 1, EventType: "PersonCreated", Payload: []byte(`{"party_id":7}`)}))
	require.NoError(t, pub.Publish(ctx, Record{EventID: 2, EventType: "PersonCreated", Payload: []byte(`{"party_id":8}`)}))

	entries, err := rdb.XRange(ctx, "outbox:PersonCreated", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"data": `{"party_id":7}`}, entries[0].Values)
	assert.Equal(t, map[string]any{"data": `{"party_id":8}`}, entries[1].Values)
}

func TestRedisStreamPublisherTransportDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.SetError("LOADING Redis is loading the dataset in memory")

	err := NewRedisStreamPublisher(rdb).Publish(context.Background(), Record{EventType: "X", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	pub := &KafkaPublisher{writer: w}

	require.NoError(t, pub.Publish(context.Background(), Record{EventID: 42, EventType: "OrganisationUpdated", Payload: []byte(`{"party_id":7,"organisation_name":"Diddly Squat"}`)}))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "outbox.OrganisationUpdated", msg.Topic)
	assert.Equal(t, "7", string(msg.Key))
	assert.True(t, json.Valid(msg.Value))
	assert.Equal(t, "42", kafkax.HeaderValue(msg.Headers, "event_id"))
	assert.Equal(t, "OrganisationUpdated", kafkax.HeaderValue(msg.Headers, "event_type"))

	w.err = errors.New("leader not available")
	assert.Error(t, pub.Publish(context.Background(), Record{EventType: "X", Payload: []byte(`{}`)}))
}

func TestPartyKey(t *testing.T) {
	assert.Equal(t, "12", string(partyKey([]byte(`{"party_id":12}`))))
	assert.Nil(t, partyKey([]byte(`{"a":1}`)))
	assert.Nil(t, partyKey([]byte(`not json`)))
}

func TestEncodePayload(t *testing.T) {
	body, err := encodePayload(PersonCreated, map[string]any{"party_id": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"party_id":1}`, string(body))

	body, err = encodePayload(PersonDeleted, json.RawMessage(`{"party_id":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"party_id":2}`, string(body))

	_, err = encodePayload("", map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	_, err = encodePayload(PersonCreated, []byte(`{broken`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
	_, err = encodePayload(PersonCreated, func() {})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "outbox:ExternalIdentifierCreated", StreamName(ExternalIdentifierCreated))
}
