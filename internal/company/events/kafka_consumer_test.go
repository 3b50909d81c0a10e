package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func encodedEvent(t *testing.T, eventType EventType, id int64) kafka.Message {
	value, err := json.Marshal(NewEvent(eventType, testCompany(id)))
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		encodedEvent(t, CompanyCreated, 1),
		encodedEvent(t, CompanyDeleted, 2),
	}}
	consumer := &Consumer{reader: reader, logger: zaptest.NewLogger(t), done: make(chan struct{})}

	var (
		mu       sync.Mutex
		received []Event
	)
	consumer.RegisterHandler(func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	require.Eventually(t, func() bool { return reader.committedCount() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-consumer.Done()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, CompanyCreated, received[0].Type)
	assert.Equal(t, int64(1), received[0].Company.ID)
	assert.Equal(t, CompanyDeleted, received[1].Type)
}

func TestConsumer_HandlerErrorSkipsCommit(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	reader := &fakeReader{messages: []kafka.Message{
		encodedEvent(t, CompanyUpdated, 1),
		{Value: []byte("not json")},
	}}
	consumer := &Consumer{reader: reader, logger: zap.New(core), done: make(chan struct{})}
	consumer.RegisterHandler(func(context.Context, Event) error {
		return errors.New("handler failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	require.Eventually(t, func() bool {
		return recorded.FilterMessage("Failed to parse event").Len() == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-consumer.Done()

	assert.Equal(t, 1, recorded.FilterMessage("Failed to handle event").Len())
	assert.Equal(t, 1, reader.committedCount(), "only the undecodable message is committed")
}

func TestConsumer_Close(t *testing.T) {
	reader := &fakeReader{}
	consumer := &Consumer{reader: reader, logger: zaptest.NewLogger(t)}

	consumer.Close()

	assert.True(t, reader.closed)
}
