package monitor

import (
	"sync"
	"time"
)

// Service owns the active monitors, one per observing caller. Concurrently
// monitored auctions share nothing but the store underneath their fetches.
type Service struct {
	fetch    FetchFunc
	interval time.Duration

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewService(fetch FetchFunc, interval time.Duration) *Service {
	return &Service{
		fetch:    fetch,
		interval: interval,
		monitors: make(map[string]*Monitor),
	}
}

// StartMonitoring starts a polling monitor over the auction and returns its
// handle. The monitor deregisters itself when its loop exits.
func (s *Service) StartMonitoring(auctionID string, onUpdate UpdateFunc) *Monitor {
	m := NewMonitor(auctionID, s.interval, s.fetch, onUpdate)

	s.mu.Lock()
	s.monitors[m.HandleID] = m
	s.mu.Unlock()

	m.Start()
	go func() {
		<-m.Done()
		s.mu.Lock()
		delete(s.monitors, m.HandleID)
		s.mu.Unlock()
	}()
	return m
}

// StopMonitoring stops the monitor behind a handle. Unknown handles are a
// no-op: the monitor may already have stopped itself on a terminal status.
func (s *Service) StopMonitoring(handleID string) {
	s.mu.Lock()
	m, exists := s.monitors[handleID]
	s.mu.Unlock()
	if exists {
		m.Stop()
	}
}

// ActiveCount reports how many monitors are currently polling.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.monitors)
}
