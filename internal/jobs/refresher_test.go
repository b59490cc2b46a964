package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/worker"
)

type fakeLister struct {
	mu      sync.Mutex
	roomIDs []string
	err     error
	cutoffs []time.Time
}

func (f *fakeLister) StaleRoomIDs(ctx context.Context, olderThan time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, olderThan)
	return f.roomIDs, f.err
}

type noopRefresher struct{}

func (noopRefresher) RefreshRoomID(ctx context.Context, roomID string) error { return nil }

func newTestManager(lister *fakeLister, pool *worker.WorkerPool) *RefreshManager {
	return NewRefreshManager(lister, pool, RefresherConfig{
		Interval:   time.Hour, // sweeps are driven manually in tests
		StaleAfter: 30 * time.Minute,
	})
}

func TestSweep_SubmitsStaleRooms(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{roomIDs: []string{"r1", "r2"}}
	pool := worker.NewWorkerPool(1, 10, noopRefresher{}, time.Second)
	pool.Start()
	defer func() { _ = pool.Shutdown(time.Second) }()

	rm := newTestManager(lister, pool)
	rm.sweep(context.Background())

	assert.Equal(t, int64(1), rm.sweeps.Load())
	assert.Equal(t, int64(2), rm.submitted.Load())
	assert.Equal(t, int64(0), rm.dropped.Load())

	// The cutoff reflects the staleness window.
	require.Len(t, lister.cutoffs, 1)
	assert.WithinDuration(t, time.Now().Add(-30*time.Minute), lister.cutoffs[0], time.Minute)
}

func TestSweep_CountsBackpressureDrops(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{roomIDs: []string{"r1", "r2", "r3"}}
	// One queue slot and no running workers: only the first submit fits.
	pool := worker.NewWorkerPool(1, 1, noopRefresher{}, time.Second)

	rm := newTestManager(lister, pool)
	rm.sweep(context.Background())

	assert.Equal(t, int64(1), rm.submitted.Load())
	assert.Equal(t, int64(2), rm.dropped.Load())
}

func TestSweep_ListFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{err: errors.New("db down")}
	pool := worker.NewWorkerPool(1, 10, noopRefresher{}, time.Second)

	rm := newTestManager(lister, pool)
	rm.sweep(context.Background())

	assert.Equal(t, int64(1), rm.sweeps.Load())
	assert.Equal(t, int64(0), rm.submitted.Load())
}

func TestRefreshManager_StartStop(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{}
	pool := worker.NewWorkerPool(1, 10, noopRefresher{}, time.Second)
	rm := newTestManager(lister, pool)

	require.NoError(t, rm.Start(context.Background()))
	assert.True(t, rm.IsRunning())

	// Double start is rejected.
	require.Error(t, rm.Start(context.Background()))

	rm.Stop()
	assert.False(t, rm.IsRunning())

	// Stop is idempotent.
	rm.Stop()
}

func TestNewRefreshManager_Defaults(t *testing.T) {
	t.Parallel()

	rm := NewRefreshManager(&fakeLister{}, nil, RefresherConfig{})

	assert.Equal(t, 15*time.Minute, rm.interval)
	assert.Equal(t, 30*time.Minute, rm.staleAfter)
}
