package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/antique-appraiser/internal/dto"
)

func TestBrokerPublisherPublishesToRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "appraisals")
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewBrokerPublisher(client, "appraisals", nil, "")
	require.True(t, publisher.Enabled())

	event := dto.AppraisalEvent{ID: "a-1", Success: true, Score: 78, Band: "medium", Language: "zh"}
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var envelope Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
		require.Equal(t, "a-1", envelope.Event.ID)
		require.Equal(t, 78, envelope.Event.Score)
		require.NotEmpty(t, envelope.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestBrokerPublisherWithoutSinksIsNoop(t *testing.T) {
	publisher := NewBrokerPublisher(nil, "appraisals", nil, "appraisals.completed")
	require.False(t, publisher.Enabled())
	require.NoError(t, publisher.Publish(context.Background(), dto.AppraisalEvent{ID: "x"}))
}

func TestBrokerPublisherReportsRedisFailure(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	publisher := NewBrokerPublisher(client, "appraisals", nil, "")
	err = publisher.Publish(context.Background(), dto.AppraisalEvent{ID: "x"})
	require.ErrorContains(t, err, "redis publish")
}

func closedNATSConn(t *testing.T) *nats.Conn {
	t.Helper()
	conn, err := nats.Connect("nats://127.0.0.1:1", nats.RetryOnFailedConnect(true))
	require.NoError(t, err)
	conn.Close()
	require.True(t, conn.IsClosed())
	return conn
}

func TestBrokerPublisherReportsNATSFailureAndStillPublishesToRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "appraisals")
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewBrokerPublisher(client, "appraisals", closedNATSConn(t), "appraisals.completed")
	require.True(t, publisher.Enabled())

	err = publisher.Publish(ctx, dto.AppraisalEvent{ID: "a-2", Success: true, Score: 40})
	require.ErrorContains(t, err, "nats publish")
	require.True(t, errors.Is(err, nats.ErrConnectionClosed))
	require.NotContains(t, err.Error(), "redis publish")

	select {
	case msg := <-sub.Channel():
		require.Contains(t, msg.Payload, `"a-2"`)
	case <-time.After(2 * time.Second):
		t.Fatal("redis sink skipped after nats failure")
	}
}

func TestBrokerPublisherNATSOnly(t *testing.T) {
	publisher := NewBrokerPublisher(nil, "", closedNATSConn(t), "appraisals.completed")
	require.True(t, publisher.Enabled())

	err := publisher.Publish(context.Background(), dto.AppraisalEvent{ID: "x"})
	require.ErrorIs(t, err, nats.ErrConnectionClosed)

	publisher = NewBrokerPublisher(nil, "", closedNATSConn(t), "")
	require.False(t, publisher.Enabled())
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr(), time.Second)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = ConnectRedis(context.Background(), "", time.Second)
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "::not a url", time.Second)
	require.Error(t, err)
}

func TestConnectNATSRequiresURL(t *testing.T) {
	_, err := ConnectNATS("", "appraiser", time.Second)
	require.Error(t, err)
}
