package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/md-rashed-zaman/rolodex/libs/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreams models one stream with consumer groups for a single consumer.
type fakeStreams struct {
	mu       sync.Mutex
	entries  []Entry
	groups   map[string]*fakeGroup
	readErrs []error
	creates  int
	acks     []string
}

type fakeGroup struct {
	delivered int
	pending   map[string]bool
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{groups: map[string]*fakeGroup{}}
}

func (f *fakeStreams) add(values map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("%d-0", len(f.entries)+1)
	f.entries = append(f.entries, Entry{ID: id, Values: values})
	return id
}

func (f *fakeStreams) dropGroup(group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, group)
}

func (f *fakeStreams) pendingCount(group string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[group]
	if !ok {
		return 0
	}
	return len(g.pending)
}

func (f *fakeStreams) acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acks...)
}

func (f *fakeStreams) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeStreams) CreateGroup(_ context.Context, _, group, start string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.groups[group]; ok {
		return errors.New("BUSYGROUP Consumer Group name already exists")
	}
	if start != "0" {
		return fmt.Errorf("unexpected start id %q", start)
	}
	f.groups[group] = &fakeGroup{pending: map[string]bool{}}
	return nil
}

func (f *fakeStreams) Read(ctx context.Context, args ReadArgs) ([]Entry, error) {
	f.mu.Lock()
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	g, ok := f.groups[args.Group]
	if !ok {
		f.mu.Unlock()
		return nil, errors.New("NOGROUP No such key 'outbox:ExternalIdentifierCreated' or consumer group")
	}

	var out []Entry
	if args.ID == ">" {
		for g.delivered < len(f.entries) && int64(len(out)) < args.Count {
			e := f.entries[g.delivered]
			g.delivered++
			g.pending[e.ID] = true
			out = append(out, e)
		}
	} else {
		after := seq(args.ID)
		for _, e := range f.entries {
			if g.pending[e.ID] && seq(e.ID) > after && int64(len(out)) < args.Count {
				out = append(out, e)
			}
		}
	}
	f.mu.Unlock()

	if len(out) == 0 && args.ID == ">" {
		runtime.Sleep(ctx, args.Block)
	}
	return out, nil
}

func (f *fakeStreams) Ack(_ context.Context, _, group string, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[group]
	if !ok {
		return errors.New("NOGROUP No such consumer group")
	}
	for _, id := range ids {
		delete(g.pending, id)
		f.acks = append(f.acks, id)
	}
	return nil
}

func seq(id string) int {
	n, _ := strconv.Atoi(strings.SplitN(id, "-", 2)[0])
	return n
}

type idKey struct {
	partyID int64
	system  string
}

type storedIdentifier struct {
	externalID string
	source     redisx.StreamID
}

// mapStore mirrors the Postgres upsert, including the older-entry guard.
type mapStore struct {
	mu        sync.Mutex
	rows      map[idKey]storedIdentifier
	calls     int
	failOn    map[int64]error
	failValue map[string]error
}

func newMapStore() *mapStore {
	return &mapStore{
		rows:      map[idKey]storedIdentifier{},
		failOn:    map[int64]error{},
		failValue: map[string]error{},
	}
}

func (s *mapStore) UpsertExternalIdentifier(_ context.Context, partyID int64, systemName, externalID string, source redisx.StreamID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.failOn[partyID]; ok {
		return false, err
	}
	if err, ok := s.failValue[externalID]; ok {
		return false, err
	}
	key := idKey{partyID, systemName}
	if cur, ok := s.rows[key]; ok && source.Less(cur.source) {
		return false, nil
	}
	s.rows[key] = storedIdentifier{externalID: externalID, source: source}
	return true, nil
}

func (s *mapStore) get(partyID int64, system string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[idKey{partyID, system}]
	return v.externalID, ok
}

func (s *mapStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *mapStore) heal(partyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failOn, partyID)
}

func (s *mapStore) healValue(externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failValue, externalID)
}

func (s *mapStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() Config {
	return Config{
		BatchSize:      10,
		Block:          5 * time.Millisecond,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
	}
}

func startConsumer(t *testing.T, streams Streams, store Store) (stop func()) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(streams, store, logger, nil, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Error("consumer did not stop after cancel")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

func identifier(partyID, system, externalID string) map[string]any {
	return map[string]any{"party_id": partyID, "system_name": system, "external_id": externalID}
}

func TestConsumerUpsertsLatestValue(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	streams.add(identifier("7", "SAM", "X1"))
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X1"
	}, time.Second, 2*time.Millisecond)

	streams.add(identifier("7", "SAM", "X2"))
	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X2"
	}, time.Second, 2*time.Millisecond)

	assert.Equal(t, 1, store.len())
	assert.Zero(t, streams.pendingCount(DefaultGroup))
}

func TestConsumerCreatesGroupFromStart(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	// entries appended before the group exists are still delivered
	streams.add(identifier("1", "CRM", "A"))
	streams.add(identifier("2", "CRM", "B"))
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool { return store.len() == 2 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, streams.createCount())
}

func TestConsumerExistingGroupIsNotAnError(t *testing.T) {
	streams := newFakeStreams()
	require.NoError(t, streams.CreateGroup(context.Background(), DefaultStream, DefaultGroup, "0"))
	store := newMapStore()
	streams.add(identifier("3", "SAM", "Z"))
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 2, streams.createCount())
}

func TestConsumerIsolatesBadEntries(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	bad := streams.add(identifier("not-a-number", "SAM", "X"))
	failing := streams.add(identifier("9", "SAM", "Y"))
	store.failOn[9] = errors.New("foreign key violation")
	streams.add(identifier("10", "SAM", "Z"))
	stop := startConsumer(t, streams, store)

	require.Eventually(t, func() bool {
		_, ok := store.get(10, "SAM")
		return ok
	}, time.Second, 2*time.Millisecond)
	stop()

	assert.Equal(t, 2, streams.pendingCount(DefaultGroup))
	assert.NotContains(t, streams.acked(), bad)
	assert.NotContains(t, streams.acked(), failing)
}

func TestConsumerRedeliversPendingAfterRestart(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	store.failOn[7] = errors.New("db unavailable")
	streams.add(identifier("7", "SAM", "X1"))

	stop := startConsumer(t, streams, store)
	require.Eventually(t, func() bool { return streams.pendingCount(DefaultGroup) == 1 }, time.Second, 2*time.Millisecond)
	stop()

	store.heal(7)
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X1"
	}, time.Second, 2*time.Millisecond)
	require.Eventually(t, func() bool { return streams.pendingCount(DefaultGroup) == 0 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, store.len())
}

func TestConsumerRetriesFailedEntryWhileRunning(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	store.failOn[7] = errors.New("db unavailable")
	streams.add(identifier("7", "SAM", "X1"))
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool { return store.callCount() >= 1 }, time.Second, 2*time.Millisecond)
	store.heal(7)

	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X1"
	}, time.Second, 2*time.Millisecond)
	require.Eventually(t, func() bool { return streams.pendingCount(DefaultGroup) == 0 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, streams.createCount(), "retried without a rebootstrap")
}

func TestConsumerRetryKeepsNewerValue(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	store.failValue["X1"] = errors.New("db unavailable")
	older := streams.add(identifier("7", "SAM", "X1"))
	stop := startConsumer(t, streams, store)

	require.Eventually(t, func() bool { return streams.pendingCount(DefaultGroup) == 1 }, time.Second, 2*time.Millisecond)
	streams.add(identifier("7", "SAM", "X2"))
	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X2"
	}, time.Second, 2*time.Millisecond)

	store.healValue("X1")
	require.Eventually(t, func() bool { return streams.pendingCount(DefaultGroup) == 0 }, time.Second, 2*time.Millisecond)
	assert.Contains(t, streams.acked(), older, "older entry is acknowledged once skipped")
	v, _ := store.get(7, "SAM")
	assert.Equal(t, "X2", v)

	stop()
	startConsumer(t, streams, store)
	time.Sleep(30 * time.Millisecond)
	v, _ = store.get(7, "SAM")
	assert.Equal(t, "X2", v, "restart keeps the newest value")
	assert.Equal(t, 1, store.len())
}

func TestConsumerRecreatesMissingGroup(t *testing.T) {
	streams := newFakeStreams()
	store := newMapStore()
	streams.add(identifier("7", "SAM", "X1"))
	startConsumer(t, streams, store)
	require.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 2*time.Millisecond)

	streams.dropGroup(DefaultGroup)
	streams.add(identifier("7", "SAM", "X2"))

	require.Eventually(t, func() bool {
		v, _ := store.get(7, "SAM")
		return v == "X2"
	}, time.Second, 2*time.Millisecond)
	assert.GreaterOrEqual(t, streams.createCount(), 2)
	assert.Equal(t, 1, store.len())
}

func TestConsumerBacksOffOnReadErrors(t *testing.T) {
	streams := newFakeStreams()
	streams.readErrs = []error{errors.New("connection refused"), errors.New("connection refused")}
	store := newMapStore()
	streams.add(identifier("5", "ERP", "E-5"))
	startConsumer(t, streams, store)

	require.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 2*time.Millisecond)
}

func TestConsumerStopsDuringBackoff(t *testing.T) {
	streams := newFakeStreams()
	for i := 0; i < 1000; i++ {
		streams.readErrs = append(streams.readErrs, errors.New("connection refused"))
	}
	stop := startConsumer(t, streams, newMapStore())
	time.Sleep(20 * time.Millisecond)
	stop()
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name    string
		values  map[string]any
		want    Identifier
		wantErr bool
	}{
		{
			name:   "top level fields",
			values: identifier("7", "SAM", "X1"),
			want:   Identifier{PartyID: 7, SystemName: "SAM", ExternalID: "X1"},
		},
		{
			name:   "data field with numeric party id",
			values: map[string]any{"data": `{"party_id":12,"system_name":"CRM","external_id":"C-12"}`},
			want:   Identifier{PartyID: 12, SystemName: "CRM", ExternalID: "C-12"},
		},
		{
			name:   "data field with string party id",
			values: map[string]any{"data": `{"party_id":"12","system_name":"CRM","external_id":"C-12"}`},
			want:   Identifier{PartyID: 12, SystemName: "CRM", ExternalID: "C-12"},
		},
		{
			name:   "values kept as received",
			values: identifier("7", " SAM", "X1 "),
			want:   Identifier{PartyID: 7, SystemName: " SAM", ExternalID: "X1 "},
		},
		{name: "no fields", values: map[string]any{}, wantErr: true},
		{name: "bad party id", values: identifier("x", "SAM", "X1"), wantErr: true},
		{name: "zero party id", values: identifier("0", "SAM", "X1"), wantErr: true},
		{name: "missing system", values: identifier("7", "", "X1"), wantErr: true},
		{name: "missing external id", values: identifier("7", "SAM", " "), wantErr: true},
		{name: "data not json", values: map[string]any{"data": "{"}, wantErr: true},
		{name: "system too long", values: identifier("7", strings.Repeat("s", 101), "X1"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.values)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEntry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
