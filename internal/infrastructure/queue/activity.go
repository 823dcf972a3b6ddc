package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/infrastructure/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	touchTimeout   = 5 * time.Second
)

// ActivityDispatcher records session activity off the request path. Tokens are
// sharded by FNV hash so touches for one session are applied in order.
type ActivityDispatcher struct {
	workers  []chan touch
	sessions ports.SessionRepository
	now      func() time.Time
	log      zerolog.Logger
	wg       sync.WaitGroup
}

type touch struct {
	token string
	at    time.Time
}

// NewActivityDispatcher creates a dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used. A nil now uses the wall clock.
func NewActivityDispatcher(numWorkers int, sessions ports.SessionRepository, now func() time.Time, log zerolog.Logger) *ActivityDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	d := &ActivityDispatcher{
		workers:  make([]chan touch, numWorkers),
		sessions: sessions,
		now:      now,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan touch, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *ActivityDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *ActivityDispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue schedules a last_activity update for token. It never blocks: when
// the shard is full the touch is dropped.
func (d *ActivityDispatcher) Enqueue(token string) {
	idx := d.shardIndex(token)
	select {
	case d.workers[idx] <- touch{token: token, at: d.now()}:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityDroppedTotal.Inc()
	}
}

// shardIndex maps a token deterministically to a worker index.
func (d *ActivityDispatcher) shardIndex(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *ActivityDispatcher) runWorker(ctx context.Context, id int, ch <-chan touch) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
			err := d.sessions.Touch(tctx, t.token, t.at)
			cancel()
			if err != nil {
				d.log.Debug().Err(err).Int("worker_id", id).Msg("session touch skipped")
			}
		}
	}
}
