package commands

import (
	"context"
	"time"

	"algotrade/internal/scheduler"
)

// NotSupported is substituted when an exchange does not implement a
// feature a block asked for: it sleeps a second and returns, rather
// than failing the sequence (spec §4.3).
type NotSupported struct {
	Context
}

func NewNotSupported(ctx Context) *NotSupported { return &NotSupported{Context: ctx} }

func (c *NotSupported) Setup(ctx context.Context) error { return nil }

func (c *NotSupported) Execute(ctx context.Context) (scheduler.State, error) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
	return scheduler.Finished, nil
}

func (c *NotSupported) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *NotSupported) CanCompleteInBackground() bool { return false }

func (c *NotSupported) OnCancelled(ctx context.Context) error { return nil }
