package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ElanScarton/leilao-api/internal/types"
)

// DefaultInterval is the cadence at which a live auction view is refreshed.
const DefaultInterval = 30 * time.Second

// FetchFunc produces the refreshed view of one auction at the given instant.
type FetchFunc func(auctionID string, now time.Time) (*types.AuctionView, error)

// UpdateFunc receives each refreshed view. It is never invoked after the
// monitor has observed a stop.
type UpdateFunc func(view *types.AuctionView)

// Monitor polls one auction on a fixed interval while it is live and pushes
// each refreshed view to its callback. It stops itself the first time a
// refresh observes a terminal effective status, or when the caller stops it.
// A failed refresh is logged and retried on the next tick; only a terminal
// status or an explicit stop ends polling.
type Monitor struct {
	HandleID  string
	auctionID string
	interval  time.Duration
	fetch     FetchFunc
	onUpdate  UpdateFunc

	mu      sync.Mutex
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

func NewMonitor(auctionID string, interval time.Duration, fetch FetchFunc, onUpdate UpdateFunc) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		HandleID:  uuid.New().String(),
		auctionID: auctionID,
		interval:  interval,
		fetch:     fetch,
		onUpdate:  onUpdate,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the polling loop. The first refresh fires immediately so the
// caller gets a view without waiting a full interval.
func (m *Monitor) Start() {
	go m.run()
}

func (m *Monitor) run() {
	logger := log.With().
		Str("component", "auction_monitor").
		Str("auction_id", m.auctionID).
		Logger()
	logger.Info().Dur("interval", m.interval).Msg("monitor polling started")

	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	if terminal := m.refresh(&logger); terminal {
		return
	}
	for {
		select {
		case <-m.quit:
			logger.Info().Msg("monitor stopped by caller")
			return
		case <-ticker.C:
			if terminal := m.refresh(&logger); terminal {
				logger.Info().Msg("monitor observed terminal status, polling stopped")
				return
			}
		}
	}
}

// refresh fetches the view once and delivers it. Returns true when polling
// must end. The delivery is guarded so that once Stop has been observed the
// in-flight result is discarded instead of reaching the callback.
func (m *Monitor) refresh(logger *zerolog.Logger) bool {
	view, err := m.fetch(m.auctionID, time.Now())
	if err != nil {
		// transient; retried on the next tick
		logger.Warn().Err(err).Msg("refresh failed, will retry")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return true
	}
	m.onUpdate(view)
	return view.EffectiveStatus.Terminal()
}

// Stop ends polling. After Stop returns, the callback is guaranteed not to
// fire again; an in-flight refresh still completes but its result is
// discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.quit)
	m.mu.Unlock()
	<-m.done
}

// Done is closed once the polling loop has exited, whether by caller stop or
// by observing a terminal status.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}
