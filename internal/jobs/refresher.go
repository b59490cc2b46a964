package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"backend/internal/worker"
)

// StaleRoomLister finds rooms whose stats are older than a cutoff.
// Implemented by the Postgres repository.
type StaleRoomLister interface {
	StaleRoomIDs(ctx context.Context, olderThan time.Time) ([]string, error)
}

// RefreshManager periodically sweeps for rooms with stale stats and
// submits them to the refresh worker pool. Keeps leaderboards warm
// without any client asking.
type RefreshManager struct {
	store   StaleRoomLister
	pool    *worker.WorkerPool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Metrics
	sweeps    atomic.Int64
	submitted atomic.Int64
	dropped   atomic.Int64
	startTime time.Time

	// Configuration
	interval   time.Duration
	staleAfter time.Duration
}

// RefresherConfig holds configuration for the background refresher
type RefresherConfig struct {
	Interval   time.Duration // How often to sweep for stale rooms
	StaleAfter time.Duration // How old stats may get before a refresh
}

// NewRefreshManager creates a new background refresh manager
func NewRefreshManager(store StaleRoomLister, pool *worker.WorkerPool, config RefresherConfig) *RefreshManager {
	// Apply defaults
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if config.StaleAfter == 0 {
		config.StaleAfter = 30 * time.Minute
	}

	return &RefreshManager{
		store:      store,
		pool:       pool,
		stopCh:     make(chan struct{}),
		interval:   config.Interval,
		staleAfter: config.StaleAfter,
	}
}

// Start begins the periodic sweep loop
func (rm *RefreshManager) Start(ctx context.Context) error {
	if rm.running.Load() {
		return fmt.Errorf("refresh manager already running")
	}

	rm.startTime = time.Now()
	rm.running.Store(true)

	log.Printf("Background Refresh Manager started (interval %v, stale after %v)", rm.interval, rm.staleAfter)

	rm.wg.Add(1)
	go rm.sweepLoop(ctx)

	return nil
}

// Stop gracefully stops the sweeps
func (rm *RefreshManager) Stop() {
	if !rm.running.Load() {
		return
	}

	rm.running.Store(false)
	close(rm.stopCh)
	rm.wg.Wait()

	log.Printf("Background Refresh Manager stopped")
	log.Printf("   - Sweeps: %d", rm.sweeps.Load())
	log.Printf("   - Rooms submitted: %d", rm.submitted.Load())
	log.Printf("   - Rooms dropped (backpressure): %d", rm.dropped.Load())
}

// IsRunning returns whether the manager is currently running
func (rm *RefreshManager) IsRunning() bool {
	return rm.running.Load()
}

// GetMetrics returns current refresher metrics
func (rm *RefreshManager) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"running":   rm.running.Load(),
		"sweeps":    rm.sweeps.Load(),
		"submitted": rm.submitted.Load(),
		"dropped":   rm.dropped.Load(),
		"uptime":    time.Since(rm.startTime).String(),
	}
}

// sweepLoop is the main event loop
func (rm *RefreshManager) sweepLoop(ctx context.Context) {
	defer rm.wg.Done()

	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-rm.stopCh:
			return

		case <-ticker.C:
			rm.sweep(ctx)
		}
	}
}

// sweep finds stale rooms and enqueues a refresh task per room
func (rm *RefreshManager) sweep(ctx context.Context) {
	rm.sweeps.Add(1)

	cutoff := time.Now().Add(-rm.staleAfter)
	roomIDs, err := rm.store.StaleRoomIDs(ctx, cutoff)
	if err != nil {
		log.Printf("Refresh sweep failed to list stale rooms: %v", err)
		return
	}
	if len(roomIDs) == 0 {
		return
	}

	log.Printf("Refresh sweep: %d stale rooms", len(roomIDs))

	for _, roomID := range roomIDs {
		if err := rm.pool.Submit(worker.RefreshTask{RoomID: roomID}); err != nil {
			rm.dropped.Add(1)
			// Dropped rooms are picked up by the next sweep
			continue
		}
		rm.submitted.Add(1)
	}
}
