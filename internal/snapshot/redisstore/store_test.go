package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrichaddad/flash-lob/internal/book"
	snapshotv1 "github.com/cedrichaddad/flash-lob/internal/domain/snapshot/v1"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

func TestStoreReturnsErrorOnUnreachableRedis(t *testing.T) {
	log, err := logger.New(logger.WithOutputPaths([]string{"/dev/null"}))
	require.NoError(t, err)

	s := NewStore(Config{Addr: "127.0.0.1:1", Key: "test:snapshot", Period: time.Second}, log)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = s.store(ctx, snapshotv1.Snapshot{
		Bids: []snapshotv1.Level{{Price: 100, AggregateQty: 5, OrderCount: 1}},
	})
	assert.Error(t, err)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	log, err := logger.New(logger.WithOutputPaths([]string{"/dev/null"}))
	require.NoError(t, err)

	s := NewStore(Config{Addr: "127.0.0.1:1", Key: "test:snapshot", Period: 10 * time.Millisecond}, log)
	defer s.Close()

	publisher := book.NewSnapshotPublisher()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, publisher) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(8 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
