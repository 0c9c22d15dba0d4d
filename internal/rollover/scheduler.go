// Package rollover polls a tracker for calendar day changes.
package rollover

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is how often the date is checked.
const DefaultInterval = 5 * time.Minute

// Ticker is the part of the tracker the scheduler drives.
type Ticker interface {
	Tick(ctx context.Context) bool
}

// Scheduler checks for a day change on a fixed interval
type Scheduler struct {
	ticker     Ticker
	interval   time.Duration
	onRollover func()
	logger     zerolog.Logger
	stopChan   chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

// NewScheduler creates a new rollover scheduler. onRollover may be nil; it is
// called from the scheduler goroutine after every observed day change.
func NewScheduler(ticker Ticker, interval time.Duration, onRollover func(), logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{
		ticker:     ticker,
		interval:   interval,
		onRollover: onRollover,
		logger:     logger.With().Str("component", "rollover-scheduler").Logger(),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the rollover scheduler
func (s *Scheduler) Start() {
	go s.run()
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Day rollover scheduler started")
}

// Stop stops the scheduler and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.done
	s.logger.Info().Msg("Day rollover scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	if !s.ticker.Tick(ctx) {
		s.logger.Debug().Msg("Date unchanged")
		return
	}

	s.logger.Debug().Msg("Date changed")
	if s.onRollover != nil {
		s.onRollover()
	}
}
