package scanner

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/shared"
)

// DefaultQuiescence is the debounce window used when none is configured.
const DefaultQuiescence = 300 * time.Millisecond

// Scheduler coalesces bursts of change notifications into single scan runs.
//
// One scan runs when [Scheduler.Run] starts. After that, each notification re-arms a
// single timer, and the scan runs once the window passes with no further notification.
// Scans run on the Run goroutine and never overlap.
type Scheduler struct {
	window time.Duration
	scan   func()
	events chan struct{}
	logger *log.Logger
}

// NewScheduler creates a [Scheduler] calling scan after window of quiet.
func NewScheduler(window time.Duration, scan func(), logger *log.Logger) *Scheduler {
	if window <= 0 {
		window = DefaultQuiescence
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		window: window,
		scan:   scan,
		events: make(chan struct{}, 1),
		logger: logger.WithPrefix("scheduler"),
	}
}

// Notify records that the tree changed. It never blocks.
func (s *Scheduler) Notify() {
	select {
	case s.events <- struct{}{}:
	default:
	}
}

// Run performs the initial scan and then serves notifications until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.scan()

	timer := time.NewTimer(s.window)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.events:
			timer.Stop()
			timer.Reset(s.window)
		case <-timer.C:
			s.logger.Debug("quiescent, rescanning")
			s.scan()
		}
	}
}
