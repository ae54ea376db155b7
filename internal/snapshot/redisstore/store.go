// Package redisstore mirrors the engine's published book snapshot to
// Redis on a fixed period, for external observability only. Per §4.7,
// this is explicitly not the order-state recovery excluded by the
// Non-goals: on restart, the engine never reads this back.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cedrichaddad/flash-lob/internal/book"
	snapshotv1 "github.com/cedrichaddad/flash-lob/internal/domain/snapshot/v1"
	"github.com/cedrichaddad/flash-lob/pkg/errors"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

// Config holds the mirror's Redis connection and cadence settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Period   time.Duration
}

// Store periodically reads the engine's currently published snapshot
// and writes it to Redis as JSON under a fixed key.
type Store struct {
	client *redis.Client
	key    string
	period time.Duration
	log    *logger.Logger
}

// NewStore builds a Store against the given Redis address.
func NewStore(cfg Config, log *logger.Logger) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		key:    cfg.Key,
		period: cfg.Period,
		log:    log,
	}
}

// Run mirrors publisher.Load() into Redis every Period until ctx is
// cancelled. It never blocks the engine: publisher.Load is a lock-free
// read from whichever buffer is currently active.
func (s *Store) Run(ctx context.Context, publisher *book.SnapshotPublisher) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.store(ctx, publisher.Load()); err != nil {
				s.log.Error(err, logger.NewField("action", "mirror_snapshot"))
			}
		}
	}
}

func (s *Store) store(ctx context.Context, snap snapshotv1.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.TracerFromError(err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return errors.NewTracer("failed to set snapshot in redis").Wrap(err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
