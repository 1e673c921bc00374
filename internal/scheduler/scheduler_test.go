package scheduler

import (
	"context"
	"testing"
	"time"

	"algotrade/internal/domain"

	"github.com/google/uuid"
)

// countingCommand finishes after a fixed number of backgroundExecute
// calls, and records whether OnCancelled was called.
type countingCommand struct {
	background     bool
	remaining      int
	cancelled      bool
	setupErr       error
	executeState   State
}

func (c *countingCommand) Setup(ctx context.Context) error { return c.setupErr }

func (c *countingCommand) Execute(ctx context.Context) (State, error) {
	return c.executeState, nil
}

func (c *countingCommand) BackgroundExecute(ctx context.Context) (State, error) {
	c.remaining--
	if c.remaining <= 0 {
		return Finished, nil
	}
	return KeepGoing, nil
}

func (c *countingCommand) CanCompleteInBackground() bool { return c.background }

func (c *countingCommand) OnCancelled(ctx context.Context) error {
	c.cancelled = true
	return nil
}

func TestRunSequence_FinishedImmediately(t *testing.T) {
	s := New(domain.NewAlgoRegistry(), time.Millisecond, 10*time.Millisecond)
	cmd := &countingCommand{executeState: Finished}
	task := Task{ID: uuid.New(), Command: cmd}

	if err := s.RunSequence(context.Background(), []Task{task}); err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	if s.Registry.Len() != 0 {
		t.Error("expected registry to stay empty for an immediately-finished command")
	}
}

func TestRunSequence_ForegroundDriveToCompletion(t *testing.T) {
	s := New(domain.NewAlgoRegistry(), time.Millisecond, 5*time.Millisecond)
	cmd := &countingCommand{executeState: KeepGoing, remaining: 3, background: false}
	task := Task{ID: uuid.New(), Command: cmd}

	if err := s.RunSequence(context.Background(), []Task{task}); err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	if cmd.remaining != 0 {
		t.Errorf("expected command to run to completion, remaining=%d", cmd.remaining)
	}
	if s.Registry.Len() != 0 {
		t.Error("expected registry entry to be removed on finish")
	}
}

func TestRunSequence_BackgroundAdvancesForeground(t *testing.T) {
	s := New(domain.NewAlgoRegistry(), 2*time.Millisecond, 10*time.Millisecond)
	bg := &countingCommand{executeState: KeepGoing, remaining: 5, background: true}
	fg := &countingCommand{executeState: Finished}

	tasks := []Task{
		{ID: uuid.New(), Command: bg},
		{ID: uuid.New(), Command: fg},
	}

	start := time.Now()
	if err := s.RunSequence(context.Background(), tasks); err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("expected foreground to advance without waiting for background task")
	}
	s.Wait()
	if bg.remaining != 0 {
		t.Errorf("expected background command to eventually complete, remaining=%d", bg.remaining)
	}
}

func TestRunSequence_CancellationInvokesHook(t *testing.T) {
	s := New(domain.NewAlgoRegistry(), time.Millisecond, 5*time.Millisecond)
	cmd := &countingCommand{executeState: KeepGoing, remaining: 1000, background: true}
	id := uuid.New()
	task := Task{ID: id, Command: cmd}

	if err := s.RunSequence(context.Background(), []Task{task}); err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	s.Registry.Cancel(domain.CancelPredicate{Who: "id", ID: id})
	s.Wait()

	if !cmd.cancelled {
		t.Error("expected OnCancelled to be invoked")
	}
	if s.Registry.Len() != 0 {
		t.Error("expected registry entry to be removed after cancellation")
	}
}

func TestRunSequence_AbortSequenceStopsSilently(t *testing.T) {
	s := New(domain.NewAlgoRegistry(), time.Millisecond, 5*time.Millisecond)
	aborting := &countingCommand{setupErr: domain.NewAbortSequence("stopIf matched")}
	neverRun := &countingCommand{executeState: Finished}

	ran := false
	wrapped := Task{ID: uuid.New(), Command: &hookCommand{countingCommand: neverRun, onSetup: func() { ran = true }}}

	err := s.RunSequence(context.Background(), []Task{
		{ID: uuid.New(), Command: aborting},
		wrapped,
	})
	if err != nil {
		t.Fatalf("expected AbortSequence to stop silently, got %v", err)
	}
	if ran {
		t.Error("expected the sequence to stop before the second task ran")
	}
}

// hookCommand wraps a countingCommand to observe whether Setup ran.
type hookCommand struct {
	*countingCommand
	onSetup func()
}

func (h *hookCommand) Setup(ctx context.Context) error {
	h.onSetup()
	return h.countingCommand.Setup(ctx)
}
