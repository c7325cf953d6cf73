package engine

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTick(t *testing.T) {
	base := time.Unix(1000, 0)
	iv := 10 * time.Millisecond

	tests := []struct {
		name    string
		now     time.Time
		want    time.Time
		skipped int
	}{
		{"on time", base.Add(2 * time.Millisecond), base.Add(iv), 0},
		{"exactly at next", base.Add(iv), base.Add(2 * iv), 1},
		{"overran one period", base.Add(15 * time.Millisecond), base.Add(2 * iv), 1},
		{"overran many periods", base.Add(95 * time.Millisecond), base.Add(10 * iv), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := nextTick(base, tt.now, iv)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.skipped, skipped)
			assert.True(t, got.After(tt.now))
		})
	}
}

func TestNextTick_ZeroInterval(t *testing.T) {
	base := time.Unix(1000, 0)
	got, _ := nextTick(base, base, 0)
	assert.Equal(t, base.Add(DefaultInterval), got)
}

func TestSampler_StartStopJoins(t *testing.T) {
	var ticks atomic.Int64
	s := NewSampler(SamplerConfig{Interval: time.Millisecond}, func(time.Time) error {
		ticks.Add(1)
		return nil
	}, nil)

	var last int64
	for round := 0; round < 5; round++ {
		s.Start()
		require.Eventually(t, func() bool { return ticks.Load() > last }, time.Second, time.Millisecond)
		s.Stop()

		stopped := ticks.Load()
		assert.GreaterOrEqual(t, stopped, last)
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, stopped, ticks.Load(), "no tick may run after Stop returns")
		assert.Equal(t, Stopped, s.Status().State)
		last = stopped
	}
}

func TestSampler_StartIsIdempotent(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	s := NewSampler(SamplerConfig{Interval: time.Millisecond}, func(time.Time) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(200 * time.Microsecond)
		inFlight.Add(-1)
		return nil
	}, nil)

	s.Start()
	s.Start()
	s.Start()
	assert.Equal(t, Running, s.Status().State)
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Equal(t, int64(1), maxInFlight.Load())
}

func TestSampler_StopWithoutStart(t *testing.T) {
	s := NewSampler(SamplerConfig{}, func(time.Time) error { return nil }, nil)
	s.Stop()
	assert.Equal(t, Stopped, s.Status().State)
	assert.Equal(t, DefaultInterval, s.Interval())
}

func TestSampler_HaltsAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	var failing atomic.Bool
	failing.Store(true)
	boom := errors.New("boom")
	s := NewSampler(SamplerConfig{Interval: time.Millisecond, FailureThreshold: 3}, func(time.Time) error {
		calls.Add(1)
		if failing.Load() {
			return boom
		}
		return nil
	}, nil)

	s.Start()
	require.Eventually(t, func() bool { return s.Status().State == Stopped }, time.Second, time.Millisecond)

	st := s.Status()
	assert.ErrorIs(t, st.Err, ErrSourceUnavailable)
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, 3, st.Failures)
	assert.Equal(t, int64(3), calls.Load())

	// Stop after a self-halt is a no-op; a new Start clears the error.
	s.Stop()
	failing.Store(false)
	s.Start()
	require.Eventually(t, func() bool { return calls.Load() > 4 }, time.Second, time.Millisecond)
	s.Stop()

	st = s.Status()
	assert.NoError(t, st.Err)
	assert.Zero(t, st.Failures)
}

func TestSampler_FailuresResetOnSuccess(t *testing.T) {
	var calls atomic.Int64
	s := NewSampler(SamplerConfig{Interval: time.Millisecond, FailureThreshold: 3}, func(time.Time) error {
		// fail twice, succeed once, forever
		if calls.Add(1)%3 != 0 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	s.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 12 }, time.Second, time.Millisecond)
	s.Stop()

	st := s.Status()
	assert.NoError(t, st.Err)
	assert.Less(t, st.Failures, 3)
}

func TestSampler_ZeroThresholdNeverHalts(t *testing.T) {
	var calls atomic.Int64
	s := NewSampler(SamplerConfig{Interval: time.Millisecond}, func(time.Time) error {
		calls.Add(1)
		return errors.New("down")
	}, nil)

	s.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 10 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, s.Status().State)
	s.Stop()
	assert.NoError(t, s.Status().Err)
}

func TestSampler_SkipsInsteadOfBursting(t *testing.T) {
	var calls atomic.Int64
	s := NewSampler(SamplerConfig{Interval: 2 * time.Millisecond}, func(time.Time) error {
		if calls.Add(1) == 1 {
			time.Sleep(20 * time.Millisecond)
		}
		return nil
	}, nil)

	s.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, s.Status().Skipped, 5)
}
