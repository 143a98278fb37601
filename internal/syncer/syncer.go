// Package syncer decides when automatically-tracked habits get their
// progress refreshed from the external metric source. Several independent
// triggers funnel through one in-flight guard and a cool-down window so
// redundant triggers are dropped rather than queued; the periodic timer or
// the next user action retries soon enough.
package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/metrics"
	"github.com/julianstephens/stride/internal/models"
)

// Trigger identifies what caused a sync attempt.
type Trigger string

const (
	// TriggerTimer is the periodic foreground timer.
	TriggerTimer Trigger = "timer"
	// TriggerStartup fires when the process starts or returns to the
	// foreground.
	TriggerStartup Trigger = "startup"
	// TriggerHabitAdded fires when a habit was just created and must sync
	// immediately; it bypasses the cool-down.
	TriggerHabitAdded Trigger = "habit-added"
	// TriggerExternal fires when the source reports new data.
	TriggerExternal Trigger = "external"
	// TriggerForce is an explicit user request; it bypasses the cool-down.
	TriggerForce Trigger = "force"
)

func (t Trigger) bypassesCooldown() bool {
	return t == TriggerHabitAdded || t == TriggerForce
}

// Result records the outcome of syncing one habit.
type Result struct {
	HabitID string
	Name    string
	Value   float64
	Err     error
}

type Syncer struct {
	engine   *engine.Engine
	source   metrics.Source
	cooldown time.Duration
	timeout  time.Duration

	inFlight atomic.Bool

	mu       sync.Mutex
	lastSync time.Time
}

func New(eng *engine.Engine, source metrics.Source, cooldown, timeout time.Duration) *Syncer {
	return &Syncer{
		engine:   eng,
		source:   source,
		cooldown: cooldown,
		timeout:  timeout,
	}
}

// Sync refreshes every automatic habit from the source. It returns
// (nil, false) when the trigger was dropped because a sync is already in
// flight or the cool-down has not elapsed. Each habit is fetched and
// applied independently; one habit's failure never aborts the others.
func (s *Syncer) Sync(ctx context.Context, trigger Trigger) ([]Result, bool) {
	// Single-slot guard: at most one sync runs at a time, and concurrent
	// triggers are dropped, not queued.
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, false
	}
	defer s.inFlight.Store(false)

	if !trigger.bypassesCooldown() && !s.cooldownElapsed() {
		return nil, false
	}

	day := s.engine.Today()
	habits, err := s.engine.Store().GetAllHabits()
	if err != nil {
		return []Result{{Err: err}}, true
	}

	var results []Result
	for _, h := range habits {
		if h.TrackingMode != models.TrackingAutomatic {
			continue
		}
		results = append(results, s.syncHabit(ctx, h, day))
		if ctx.Err() != nil {
			// Host shutting down; per-habit updates already applied are
			// each transactional, so stopping here is safe.
			break
		}
	}

	s.mu.Lock()
	s.lastSync = time.Now()
	s.mu.Unlock()

	return results, true
}

func (s *Syncer) cooldownElapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync.IsZero() || time.Since(s.lastSync) >= s.cooldown
}

// syncHabit fetches the habit's metric outside any engine lock, then
// applies the value transactionally.
func (s *Syncer) syncHabit(ctx context.Context, h models.Habit, day string) Result {
	res := Result{HabitID: h.ID, Name: h.Name}

	kind, ok := metrics.KindForHabit(h)
	if !ok {
		res.Err = &engine.ExternalSourceError{HabitID: h.ID, Err: metrics.ErrNotFound}
		return res
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.source.FetchMetric(fetchCtx, kind, day)
	if err != nil {
		res.Err = &engine.ExternalSourceError{HabitID: h.ID, Err: err}
		return res
	}

	value := metrics.ConvertValue(h.GoalUnit, kind, raw)
	res.Value = value

	if _, err := s.engine.SetProgress(h.ID, value, day); err != nil {
		res.Err = err
	}
	return res
}

// Run drives the periodic timer trigger until ctx is cancelled. An
// immediate startup sync runs first.
func (s *Syncer) Run(ctx context.Context, interval time.Duration, onPass func([]Result)) {
	report := func(results []Result, ran bool) {
		if ran && onPass != nil {
			onPass(results)
		}
	}

	report(s.Sync(ctx, TriggerStartup))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(s.Sync(ctx, TriggerTimer))
		}
	}
}
