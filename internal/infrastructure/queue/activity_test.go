package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/infrastructure/metrics"
)

// touchRecorder implements ports.SessionRepository; only Touch is exercised.
type touchRecorder struct {
	mu      sync.Mutex
	touched map[string][]time.Time
	done    chan struct{}
	want    int
	seen    int
}

func newTouchRecorder(want int) *touchRecorder {
	return &touchRecorder{touched: make(map[string][]time.Time), done: make(chan struct{}), want: want}
}

func (r *touchRecorder) Touch(_ context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[token] = append(r.touched[token], at)
	r.seen++
	if r.seen == r.want {
		close(r.done)
	}
	return nil
}

func (r *touchRecorder) Insert(context.Context, *domain.Session) error { return nil }
func (r *touchRecorder) FindActiveByToken(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (r *touchRecorder) Deactivate(context.Context, string) error { return nil }
func (r *touchRecorder) DeactivateExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (r *touchRecorder) ListByUser(context.Context, int64) ([]*domain.Session, error) {
	return nil, nil
}

func TestActivityDispatcher_TouchesInOrder(t *testing.T) {
	rec := newTouchRecorder(6)

	var mu sync.Mutex
	clock := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	d := NewActivityDispatcher(3, rec, now, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 3; i++ {
		d.Enqueue("token-a")
		d.Enqueue("token-b")
	}

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for touches")
	}
	cancel()
	d.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for token, times := range rec.touched {
		if len(times) != 3 {
			t.Fatalf("%s: expected 3 touches, got %d", token, len(times))
		}
		for i := 1; i < len(times); i++ {
			if !times[i].After(times[i-1]) {
				t.Errorf("%s: touches out of order: %v", token, times)
			}
		}
	}
}

func TestActivityDispatcher_DropsWhenFull(t *testing.T) {
	d := NewActivityDispatcher(1, newTouchRecorder(-1), nil, zerolog.Nop())
	before := testutil.ToFloat64(metrics.ActivityDroppedTotal)

	// Workers are not started, so the single shard fills up.
	for i := 0; i < channelBuffer+5; i++ {
		d.Enqueue("tok")
	}

	if got := testutil.ToFloat64(metrics.ActivityDroppedTotal) - before; got != 5 {
		t.Fatalf("expected 5 dropped touches, got %v", got)
	}
}

func TestActivityDispatcher_ShardIsStable(t *testing.T) {
	d := NewActivityDispatcher(0, newTouchRecorder(-1), nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	if d.shardIndex("abc") != d.shardIndex("abc") {
		t.Fatal("shard index must be deterministic")
	}
}
