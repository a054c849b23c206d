package monitor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElanScarton/leilao-api/internal/types"
)

const testInterval = 5 * time.Millisecond

// viewFetcher fakes the store behind the monitor: it serves a programmable
// sequence of views and errors.
type viewFetcher struct {
	mu     sync.Mutex
	status types.Status
	err    error
	calls  int
}

func (f *viewFetcher) set(status types.Status, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.err = err
}

func (f *viewFetcher) fetch(auctionID string, now time.Time) (*types.AuctionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &types.AuctionView{
		Auction:         types.Auction{AuctionID: auctionID},
		EffectiveStatus: f.status,
		AsOf:            now,
	}, nil
}

func (f *viewFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func collectUpdates(updates *[]types.Status, mu *sync.Mutex) UpdateFunc {
	return func(view *types.AuctionView) {
		mu.Lock()
		defer mu.Unlock()
		*updates = append(*updates, view.EffectiveStatus)
	}
}

func TestMonitorDeliversRefreshes(t *testing.T) {
	fetcher := &viewFetcher{status: types.StatusInProgress}

	var mu sync.Mutex
	var updates []types.Status
	m := NewMonitor("auction-1", testInterval, fetcher.fetch, collectUpdates(&updates, &mu))
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) >= 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, status := range updates {
		assert.Equal(t, types.StatusInProgress, status)
	}
}

func TestMonitorStopsOnTerminalStatus(t *testing.T) {
	fetcher := &viewFetcher{status: types.StatusInProgress}

	var mu sync.Mutex
	var updates []types.Status
	m := NewMonitor("auction-1", testInterval, fetcher.fetch, collectUpdates(&updates, &mu))
	m.Start()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) >= 1
	}, time.Second, time.Millisecond)

	fetcher.set(types.StatusFinished, nil)

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after observing terminal status")
	}

	// The terminal view itself is delivered, then nothing more.
	mu.Lock()
	delivered := len(updates)
	assert.Equal(t, types.StatusFinished, updates[delivered-1])
	mu.Unlock()

	time.Sleep(5 * testInterval)
	mu.Lock()
	assert.Equal(t, delivered, len(updates))
	mu.Unlock()
}

func TestMonitorStopPreventsFurtherCallbacks(t *testing.T) {
	fetcher := &viewFetcher{status: types.StatusInProgress}

	var delivered atomic.Int64
	m := NewMonitor("auction-1", testInterval, fetcher.fetch, func(*types.AuctionView) {
		delivered.Add(1)
	})
	m.Start()

	require.Eventually(t, func() bool {
		return delivered.Load() >= 1
	}, time.Second, time.Millisecond)

	m.Stop()
	after := delivered.Load()

	time.Sleep(5 * testInterval)
	assert.Equal(t, after, delivered.Load(), "callback fired after Stop returned")
}

func TestMonitorRetriesAfterTransientError(t *testing.T) {
	fetcher := &viewFetcher{err: errors.New("connection reset")}

	var delivered atomic.Int64
	m := NewMonitor("auction-1", testInterval, fetcher.fetch, func(*types.AuctionView) {
		delivered.Add(1)
	})
	m.Start()
	defer m.Stop()

	// Several refreshes fail; polling must keep going.
	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 3
	}, time.Second, time.Millisecond)
	assert.Zero(t, delivered.Load())

	// Fetch recovers; updates resume on the next tick.
	fetcher.set(types.StatusInProgress, nil)
	require.Eventually(t, func() bool {
		return delivered.Load() >= 1
	}, time.Second, time.Millisecond)
}

func TestServiceLifecycle(t *testing.T) {
	fetcher := &viewFetcher{status: types.StatusInProgress}
	svc := NewService(fetcher.fetch, testInterval)

	var delivered atomic.Int64
	m := svc.StartMonitoring("auction-1", func(*types.AuctionView) {
		delivered.Add(1)
	})

	require.Eventually(t, func() bool {
		return delivered.Load() >= 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, svc.ActiveCount())

	svc.StopMonitoring(m.HandleID)
	require.Eventually(t, func() bool {
		return svc.ActiveCount() == 0
	}, time.Second, time.Millisecond)

	// Stopping an unknown or already-stopped handle is a no-op.
	svc.StopMonitoring(m.HandleID)
	svc.StopMonitoring("bogus-handle")
}

func TestServiceDeregistersOnTerminal(t *testing.T) {
	fetcher := &viewFetcher{status: types.StatusCancelled}
	svc := NewService(fetcher.fetch, testInterval)

	m := svc.StartMonitoring("auction-1", func(*types.AuctionView) {})

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on terminal status")
	}

	require.Eventually(t, func() bool {
		return svc.ActiveCount() == 0
	}, time.Second, time.Millisecond)
}
