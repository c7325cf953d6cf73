// Package engine discovers memory counters, samples them periodically and serves
// their recorded time series.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/sirupsen/logrus"
)

// ErrNotDiscovered is returned by Start before any successful discovery.
var ErrNotDiscovered = errors.New("no metrics discovered")

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. A nil logger keeps the default warn-level logger.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.samplerCfg.Interval = d }
}

// WithFailureThreshold sets how many consecutive unreadable ticks halt sampling.
// Zero keeps retrying forever.
func WithFailureThreshold(n int) Option {
	return func(e *Engine) { e.samplerCfg.FailureThreshold = n }
}

// Engine ties the parser, registry, store and sampler together. Hosts use three
// entry points: Discover, Start/Stop and AllValues.
type Engine struct {
	source     meminfo.Source
	logger     *logrus.Logger
	samplerCfg SamplerConfig

	registry *Registry
	store    *Store
	sampler  *Sampler

	// lifecycle serializes Discover, Start and Stop
	lifecycle sync.Mutex
	// frozen by Start, read only by the sampling goroutine
	report meminfo.Matcher
	ids    map[string]int64
}

// New creates an engine reading from src.
func New(src meminfo.Source, opts ...Option) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	e := &Engine{
		source: src,
		logger: logger,
		samplerCfg: SamplerConfig{
			Interval:         DefaultInterval,
			FailureThreshold: DefaultFailureThreshold,
		},
		registry: NewRegistry(),
		store:    NewStore(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sampler = NewSampler(e.samplerCfg, e.sample, e.logger)
	return e
}

// Discover reads the source once and registers every counter matching the given
// pattern alternatives (all counters when none are given). It returns the matching
// descriptors in discovery order. Ids already assigned are never changed.
func (e *Engine) Discover(patterns ...string) ([]Descriptor, error) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.sampler.Status().State == Running {
		return nil, ErrRunning
	}

	report, err := meminfo.CompilePattern(patterns...)
	if err != nil {
		return nil, err
	}

	pass, err := meminfo.Read(e.source, report, meminfo.Mandatory)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	descs, err := e.registry.Discover(pass, report)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"pattern": report.String(),
			"error":   err,
		}).Error("Discovery failed")
		return nil, err
	}

	for _, d := range descs {
		e.store.Register(d.ID)
		e.logger.WithFields(logrus.Fields{
			"metric": d.Name,
			"id":     d.ID,
			"unit":   d.Unit.String(),
		}).Debug("Metric discovered")
	}
	return descs, nil
}

// Resolve returns the id of a discovered metric.
func (e *Engine) Resolve(name string) (int64, error) {
	return e.registry.Resolve(name)
}

// Lookup returns the descriptor of a discovered metric.
func (e *Engine) Lookup(id int64) (Descriptor, error) {
	return e.registry.Lookup(id)
}

// Catalog returns every discovered metric in id order.
func (e *Engine) Catalog() []Descriptor {
	return e.registry.Descriptors()
}

// Start begins periodic sampling. It is a no-op while already running.
func (e *Engine) Start() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.sampler.Status().State == Running {
		return nil
	}

	if err := e.freeze(); err != nil {
		return err
	}
	e.sampler.Start()
	return nil
}

// freeze snapshots the registry for the sampling goroutine.
func (e *Engine) freeze() error {
	descs := e.registry.Descriptors()
	if len(descs) == 0 {
		return ErrNotDiscovered
	}

	ids := make(map[string]int64, len(descs))
	for _, d := range descs {
		ids[d.Name] = d.ID
	}
	e.ids = ids
	e.report = e.registry.Matcher()
	return nil
}

// Stop halts sampling and waits for the in-flight tick to finish.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.sampler.Stop()
}

// Status reports the sampler state.
func (e *Engine) Status() Status {
	return e.sampler.Status()
}

// Interval returns the sampling period.
func (e *Engine) Interval() time.Duration {
	return e.sampler.Interval()
}

// AllValues returns the full recorded series of id.
func (e *Engine) AllValues(id int64) ([]Point, error) {
	return e.store.AllValues(id)
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() int {
	return e.store.Ticks()
}

// sample is the sampler's tick: one read, one appended tick.
func (e *Engine) sample(time.Time) error {
	pass, err := meminfo.Read(e.source, e.report, meminfo.Mandatory)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	ts := time.Now()

	derived := meminfo.Synthesize(pass, e.report)
	values := make([]Value, 0, len(pass.Reported)+len(derived))
	seen := make(map[int64]bool, cap(values))

	add := func(s meminfo.Sample) {
		id, ok := e.ids[s.Name]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		values = append(values, Value{ID: id, Value: s.Value})
	}
	for _, s := range pass.Reported {
		add(s)
	}
	for _, s := range derived {
		add(s)
	}

	for _, r := range meminfo.Rules {
		if id, ok := e.ids[r.Name]; ok && !seen[id] {
			e.logger.WithFields(logrus.Fields{
				"metric": r.Name,
				"base":   pass.BaseNames(),
			}).Debug("Derived metric skipped")
		}
	}

	e.store.Append(ts, values)
	return nil
}
