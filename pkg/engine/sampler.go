package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 10 * time.Millisecond

// DefaultFailureThreshold is the number of consecutive failed ticks tolerated
// before the sampler halts.
const DefaultFailureThreshold = 5

// TickFunc performs one sampling pass at now.
type TickFunc func(now time.Time) error

// State is the sampler lifecycle state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Status is a snapshot of the sampler's health.
type Status struct {
	State State
	// Failures is the current run of consecutive failed ticks.
	Failures int
	// Skipped counts scheduled ticks dropped because a tick overran its period.
	Skipped int
	// Err is set when the sampler halted on its own.
	Err error
}

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	Interval time.Duration
	// FailureThreshold is the number of consecutive failed ticks after which the
	// sampler halts. Zero never halts.
	FailureThreshold int
}

// Sampler runs a TickFunc on a fixed cadence in a single goroutine. Ticks that
// overrun the interval push the schedule forward instead of bursting to catch up.
type Sampler struct {
	interval  time.Duration
	threshold int
	tick      TickFunc
	logger    *logrus.Logger

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	done     chan struct{}
	next     time.Time
	failures int
	skipped  int
	err      error
}

// NewSampler creates a stopped sampler.
func NewSampler(cfg SamplerConfig, tick TickFunc, logger *logrus.Logger) *Sampler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FailureThreshold < 0 {
		cfg.FailureThreshold = 0
	}
	return &Sampler{
		interval:  cfg.Interval,
		threshold: cfg.FailureThreshold,
		tick:      tick,
		logger:    logger,
	}
}

// Interval returns the sampling period.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Start launches the sampling goroutine. The first tick is due immediately.
// Calling Start on a running sampler does nothing.
func (s *Sampler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	prev := s.done
	s.mu.Unlock()

	// the previous goroutine may still be finishing its last tick
	if prev != nil {
		<-prev
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.running = true
	s.failures = 0
	s.skipped = 0
	s.err = nil
	s.next = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	s.logger.WithField("interval", s.interval).Debug("Sampler started")
	go s.run(s.stop, s.done)
}

// Stop signals the sampling goroutine and waits for it to exit. No tick runs
// after Stop returns. Calling Stop on a stopped sampler does nothing.
func (s *Sampler) Stop() {
	s.mu.Lock()
	done := s.done
	if s.running {
		s.running = false
		close(s.stop)
	}
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Status returns the current lifecycle state and failure information.
func (s *Sampler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:    Stopped,
		Failures: s.failures,
		Skipped:  s.skipped,
		Err:      s.err,
	}
	if s.running {
		st.State = Running
	}
	return st
}

func (s *Sampler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		err := s.tick(time.Now())

		s.mu.Lock()
		halt := s.recordLocked(err)
		if halt {
			s.running = false
			s.mu.Unlock()
			return
		}
		next, skipped := nextTick(s.next, time.Now(), s.interval)
		s.next = next
		s.skipped += skipped
		s.mu.Unlock()

		if skipped > 0 {
			s.logger.WithField("skipped", skipped).Debug("Tick overran interval")
		}

		timer.Reset(time.Until(next))
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// recordLocked updates the failure counters and reports whether the sampler must
// halt. s.mu must be held.
func (s *Sampler) recordLocked(err error) bool {
	if err == nil {
		s.failures = 0
		return false
	}

	s.failures++
	s.logger.WithFields(logrus.Fields{
		"failures": s.failures,
		"error":    err,
	}).Warn("Sampling tick failed")

	if s.threshold == 0 || s.failures < s.threshold {
		return false
	}

	s.err = fmt.Errorf("%w: %d consecutive failures: %w", ErrSourceUnavailable, s.failures, err)
	s.logger.WithField("error", s.err).Error("Sampler halted")
	return true
}

// nextTick advances scheduled by whole intervals until it lies after now and
// returns it with the number of periods that were skipped.
func nextTick(scheduled, now time.Time, interval time.Duration) (time.Time, int) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	next := scheduled.Add(interval)
	if next.After(now) {
		return next, 0
	}

	behind := now.Sub(next)/interval + 1
	return next.Add(behind * interval), int(behind)
}
