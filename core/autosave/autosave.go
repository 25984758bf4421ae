// Package autosave periodically persists in-progress lesson edits as drafts.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

const DefaultPeriod = 10 * time.Second

// ErrBusy is returned by a SaveFunc that found another save of the same content in progress.
// The tick is then counted as dropped.
var ErrBusy = errors.New("a save is already in progress")

// Tick results
const (
	ResultSaved   = "saved"
	ResultSkipped = "skipped"
	ResultDropped = "dropped"
	ResultFailed  = "failed"
)

type (
	// SnapshotFunc returns the content to save and whether there is anything to save.
	SnapshotFunc func() (lesson.Content, bool)

	// SaveFunc persists content as a draft.
	SaveFunc func(ctx context.Context, content lesson.Content) error
)

// Scheduler saves a snapshot every period. At most one save is in flight: a tick firing while
// a save is pending is dropped, and so is one whose SaveFunc reports ErrBusy.
// Failures are logged, never returned.
type Scheduler struct {
	period   time.Duration
	snapshot SnapshotFunc
	save     SaveFunc
	logger   core.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	saving int32
	saves  sync.WaitGroup
}

func New(period time.Duration, snapshot SnapshotFunc, save SaveFunc, logger core.Logger) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		period:   period,
		snapshot: snapshot,
		save:     save,
		logger:   logger,
	}
}

// Start runs the scheduler until ctx is done or Stop is called. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels the timer and waits for the loop and any in-flight save to finish.
// It is safe to call Stop more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.saves.Wait()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	content, ok := s.snapshot()
	if !ok || content.ValidateFor(lesson.EventSaveDraft) != nil {
		core.AutosaveTicks.WithLabelValues(ResultSkipped).Inc()
		return
	}
	if !atomic.CompareAndSwapInt32(&s.saving, 0, 1) {
		core.AutosaveTicks.WithLabelValues(ResultDropped).Inc()
		return
	}

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		defer atomic.StoreInt32(&s.saving, 0)

		err := s.save(ctx, content)
		if errors.Is(err, ErrBusy) {
			core.AutosaveTicks.WithLabelValues(ResultDropped).Inc()
			return
		}
		if err != nil {
			core.AutosaveTicks.WithLabelValues(ResultFailed).Inc()
			if s.logger != nil {
				s.logger.Warn(fmt.Sprintf("autosave failed: %v", err), err)
			}
			return
		}
		core.AutosaveTicks.WithLabelValues(ResultSaved).Inc()
	}()
}
