package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

const period = 5 * time.Millisecond

var header = lesson.Content{Header: lesson.Header{Subject: "Mathematics", Class: "JSS1", Week: "1"}}

type recorder struct {
	mu    sync.Mutex
	saved []lesson.Content
}

func (r *recorder) save(_ context.Context, c lesson.Content) error {
	r.mu.Lock()
	r.saved = append(r.saved, c)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func snapshotOf(c lesson.Content, dirty bool) SnapshotFunc {
	return func() (lesson.Content, bool) { return c, dirty }
}

func TestScheduler_saves(t *testing.T) {
	rec := new(recorder)
	s := New(period, snapshotOf(header, true), rec.save, nil)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, period)
	rec.mu.Lock()
	assert.Equal(t, header, rec.saved[0])
	rec.mu.Unlock()
}

func TestScheduler_skips(t *testing.T) {
	tests := []struct {
		name     string
		snapshot SnapshotFunc
	}{
		{name: "nothing to save", snapshot: snapshotOf(header, false)},
		{name: "missing identifying fields", snapshot: snapshotOf(lesson.Content{Header: lesson.Header{Subject: "Mathematics"}}, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ticks int32
			snapshot := func() (lesson.Content, bool) {
				atomic.AddInt32(&ticks, 1)
				return tt.snapshot()
			}
			rec := new(recorder)
			s := New(period, snapshot, rec.save, nil)
			s.Start(context.Background())

			assert.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 3 }, time.Second, period)
			s.Stop()
			assert.Equal(t, 0, rec.count())
		})
	}
}

func TestScheduler_oneSaveInFlight(t *testing.T) {
	release := make(chan struct{})
	var inFlight, maxInFlight, calls int32
	save := func(ctx context.Context, _ lesson.Content) error {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&calls, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}

	var ticks int32
	snapshot := func() (lesson.Content, bool) {
		atomic.AddInt32(&ticks, 1)
		return header, true
	}

	s := New(period, snapshot, save, nil)
	s.Start(context.Background())

	// several ticks fire while the first save is blocked
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 5 }, time.Second, period)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	close(release)
	s.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Equal(t, int32(0), atomic.LoadInt32(&inFlight))
}

func TestScheduler_failuresDoNotStopIt(t *testing.T) {
	var calls int32
	save := func(context.Context, lesson.Content) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db down")
	}
	s := New(period, snapshotOf(header, true), save, nil)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, period)
	assert.True(t, s.Running())
}

type warnCounter struct {
	core.Logger
	warns int32
}

func (l *warnCounter) Warn(string, ...interface{}) { atomic.AddInt32(&l.warns, 1) }

func TestScheduler_busySaveIsDropped(t *testing.T) {
	dropped := testutil.ToFloat64(core.AutosaveTicks.WithLabelValues(ResultDropped))
	failed := testutil.ToFloat64(core.AutosaveTicks.WithLabelValues(ResultFailed))

	var calls int32
	save := func(context.Context, lesson.Content) error {
		atomic.AddInt32(&calls, 1)
		return ErrBusy
	}
	logger := new(warnCounter)
	s := New(period, snapshotOf(header, true), save, logger)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, period)
	s.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&logger.warns))
	assert.GreaterOrEqual(t, testutil.ToFloat64(core.AutosaveTicks.WithLabelValues(ResultDropped))-dropped, float64(3))
	assert.Equal(t, failed, testutil.ToFloat64(core.AutosaveTicks.WithLabelValues(ResultFailed)))
}

func TestScheduler_startStop(t *testing.T) {
	rec := new(recorder)
	s := New(period, snapshotOf(header, true), rec.save, nil)
	assert.False(t, s.Running())

	s.Stop() // not started
	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	assert.True(t, s.Running())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())

	// no more saves once stopped
	n := rec.count()
	time.Sleep(5 * period)
	assert.Equal(t, n, rec.count())

	// restartable
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return rec.count() > n }, time.Second, period)
	s.Stop()
}

func TestScheduler_parentContext(t *testing.T) {
	rec := new(recorder)
	ctx, cancel := context.WithCancel(context.Background())
	s := New(period, snapshotOf(header, true), rec.save, nil)
	s.Start(ctx)
	cancel()

	s.Stop() // returns once the loop has exited
	n := rec.count()
	time.Sleep(5 * period)
	assert.Equal(t, n, rec.count())
}

func TestNew_defaultPeriod(t *testing.T) {
	s := New(0, snapshotOf(header, true), new(recorder).save, nil)
	assert.Equal(t, DefaultPeriod, s.period)
}
