// Package scheduler drives command sequences: foreground actions run
// strictly in order, and any command that does not finish immediately
// is polled to completion, either inline or on a background pool
// (spec §4.2).
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/infra"
	"algotrade/pkg/quant"

	"github.com/google/uuid"
)

// State is a command's self-reported progress after one execute call.
type State int

const (
	Finished State = iota
	KeepGoing
	KeepGoingBackOff
)

func (s State) String() string {
	switch s {
	case Finished:
		return "finished"
	case KeepGoing:
		return "keep_going"
	case KeepGoingBackOff:
		return "keep_going_backoff"
	default:
		return "unknown"
	}
}

// Command is the cooperative-task contract every order command
// implements (spec §9 design note).
type Command interface {
	Setup(ctx context.Context) error
	Execute(ctx context.Context) (State, error)
	BackgroundExecute(ctx context.Context) (State, error)
	CanCompleteInBackground() bool
	OnCancelled(ctx context.Context) error
}

// InitialWaiter is an optional Command extension for a task whose
// first background poll needs a different wait than minDelay (e.g.
// aggressiveEntry's "min + 2s" per spec §4.3 step 5).
type InitialWaiter interface {
	InitialWait(minDelay time.Duration) time.Duration
}

// Task binds a Command to the registry identity it runs under.
type Task struct {
	ID        uuid.UUID
	Side      domain.Side
	SessionID uuid.UUID
	Tag       string
	Command   Command
}

// Scheduler owns the polling bounds and algo registry for one
// exchange handle.
type Scheduler struct {
	Registry *domain.AlgoRegistry
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger

	wg sync.WaitGroup
}

// New builds a scheduler with sane defaults if Logger is nil.
func New(registry *domain.AlgoRegistry, minDelay, maxDelay time.Duration) *Scheduler {
	return &Scheduler{Registry: registry, MinDelay: minDelay, MaxDelay: maxDelay, Logger: slog.Default()}
}

// RunSequence runs tasks strictly in order. A task that finishes
// immediately falls through to the next; a task that does not is
// either handed to the background pool (if it opts in) or driven to
// completion inline before the next task starts. An AbortSequence
// error (stopIf/continueIf) ends the sequence silently; any other
// error propagates to the caller.
func (s *Scheduler) RunSequence(ctx context.Context, tasks []Task) error {
	for _, t := range tasks {
		if err := t.Command.Setup(ctx); err != nil {
			if domain.Is(err, domain.AbortSequence) {
				s.Logger.Debug("sequence aborted during setup", slog.String("task", t.ID.String()))
				return nil
			}
			return err
		}

		state, err := t.Command.Execute(ctx)
		if err != nil {
			if domain.Is(err, domain.AbortSequence) {
				s.Logger.Debug("sequence aborted", slog.String("task", t.ID.String()))
				return nil
			}
			return err
		}
		if state == Finished {
			continue
		}

		entry := s.Registry.Register(&domain.AlgoOrderEntry{
			ID:        t.ID,
			Side:      t.Side,
			SessionID: t.SessionID,
			Tag:       t.Tag,
		})

		if t.Command.CanCompleteInBackground() {
			s.wg.Add(1)
			go func(entry *domain.AlgoOrderEntry, cmd Command) {
				defer s.wg.Done()
				defer infra.Recover()
				s.driveToCompletion(ctx, entry, cmd)
			}(entry, t.Command)
			continue
		}

		s.driveToCompletion(ctx, entry, t.Command)
	}
	return nil
}

// Wait blocks until every background task spawned by RunSequence has
// finished. Intended for tests and graceful shutdown.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// driveToCompletion implements the shared polling loop (spec §4.2):
// sleep, grow the wait time, check for cancellation, poll, and reset
// the wait time on fast progress.
func (s *Scheduler) driveToCompletion(ctx context.Context, entry *domain.AlgoOrderEntry, cmd Command) {
	defer s.Registry.Remove(entry.ID)

	waitTime := s.MinDelay
	if iw, ok := cmd.(InitialWaiter); ok {
		waitTime = iw.InitialWait(s.MinDelay)
	}
	state := KeepGoing

	for state != Finished {
		select {
		case <-ctx.Done():
			return
		case <-time.After(waitTime):
		}

		if waitTime < s.MaxDelay {
			waitTime += time.Second
			if waitTime > s.MaxDelay {
				waitTime = s.MaxDelay
			}
		}

		if entry.Cancelled() {
			if err := cmd.OnCancelled(ctx); err != nil {
				s.Logger.Warn("onCancelled failed", slog.String("task", entry.ID.String()), slog.Any("error", err))
			}
			return
		}

		polledAt := quant.Now()
		var err error
		state, err = cmd.BackgroundExecute(ctx)
		if err != nil {
			s.Logger.Warn("backgroundExecute failed", slog.String("task", entry.ID.String()), slog.Any("error", err), slog.Int64("polled_at_us", int64(polledAt)))
			return
		}
		if state == KeepGoing {
			waitTime = s.MinDelay
		}
	}
}
