package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: DefaultTopic, logger: slog.Default()}

	ev := domain.LoginEvent{
		UserID:     "01J0000000000000000000000",
		Email:      "a@b.com",
		IP:         "8.8.8.8",
		City:       "Sydney",
		Country:    "Australia",
		LoggedInAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	require.Equal(t, []byte(ev.UserID), w.msgs[0].Key)

	var got domain.LoginEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, ev.Email, got.Email)
	require.Equal(t, "Sydney", got.City)
	require.True(t, ev.LoggedInAt.Equal(got.LoggedInAt))

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisherWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}, topic: DefaultTopic, logger: slog.Default()}

	err := p.Publish(context.Background(), domain.LoginEvent{UserID: "u"})
	require.ErrorIs(t, err, boom)
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), domain.LoginEvent{}))
	require.NoError(t, p.Close())
}
