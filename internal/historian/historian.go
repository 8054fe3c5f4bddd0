// Package historian drains the Redis room event queue into Postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Writer persists a batch of events. Implemented by database.EventWriter.
type Writer interface {
	WriteEvents(ctx context.Context, events []models.RoomEvent) error
}

// Service pops room events from a Redis list and flushes them to a Writer whenever the batch
// is full or the flush delay has passed.
type Service struct {
	redisClient *redis.Client
	queue       string
	writer      Writer
	log         *logrus.Logger
	batchSize   int
	flushDelay  time.Duration

	batchMu sync.Mutex
	batch   []models.RoomEvent
}

// NewService constructs a historian. Non-positive sizes fall back to 20 events / 500ms.
func NewService(rdb *redis.Client, queue string, writer Writer, log *logrus.Logger, batchSize int, flushDelay time.Duration) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		redisClient: rdb,
		queue:       queue,
		writer:      writer,
		log:         log,
		batchSize:   batchSize,
		flushDelay:  flushDelay,
		batch:       make([]models.RoomEvent, 0, batchSize),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (hs *Service) Run(ctx context.Context) {
	hs.log.WithField("queue", hs.queue).Info("historian started")
	defer hs.log.Info("historian stopped")

	lastFlush := time.Now()
	for {
		if ctx.Err() != nil {
			hs.flush(context.WithoutCancel(ctx))
			return
		}

		// The pop timeout doubles as the flush tick, so an idle queue still flushes on time.
		res, err := hs.redisClient.BLPop(ctx, hs.flushDelay, hs.queue).Result()
		switch {
		case err == nil && len(res) == 2:
			hs.accept(ctx, []byte(res[1]))
		case err == nil, errors.Is(err, redis.Nil):
		case ctx.Err() != nil:
			continue
		default:
			hs.log.Errorf("BLPop: %v", err)
			// avoid a hot loop while redis is unreachable
			select {
			case <-ctx.Done():
			case <-time.After(hs.flushDelay):
			}
		}

		if time.Since(lastFlush) >= hs.flushDelay {
			hs.flush(ctx)
			lastFlush = time.Now()
		}
	}
}

// accept decodes one queue payload and adds it to the batch, flushing when full.
func (hs *Service) accept(ctx context.Context, payload []byte) {
	var ev models.RoomEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		hs.log.Warnf("invalid room event: %v", err)
		return
	}

	hs.batchMu.Lock()
	hs.batch = append(hs.batch, ev)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()

	if full {
		hs.flush(ctx)
	}
}

// flush writes the current batch. A failed batch is put back so the next flush retries it.
func (hs *Service) flush(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := make([]models.RoomEvent, len(hs.batch))
	copy(pending, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	if err := hs.writer.WriteEvents(ctx, pending); err != nil {
		hs.log.Errorf("flush %d room events: %v", len(pending), err)
		hs.batchMu.Lock()
		hs.batch = append(pending, hs.batch...)
		hs.batchMu.Unlock()
		return
	}
	hs.log.Debugf("flushed %d room events", len(pending))
}

// Pending reports how many events are buffered and not yet written.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}
