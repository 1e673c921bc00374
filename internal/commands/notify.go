package commands

import (
	"context"

	"algotrade/internal/scheduler"
)

// Notifier is the outbound sink notify() writes to, implemented by
// internal/notify and injected per exchange handle.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Notify forwards its text argument to the configured notifier.
type Notify struct {
	Context
	Raw      map[string]string
	Notifier Notifier
}

func NewNotify(ctx Context, notifier Notifier, params map[string]string) *Notify {
	defaults := map[string]string{"text": ""}
	for k, v := range params {
		defaults[k] = v
	}
	return &Notify{Context: ctx, Raw: defaults, Notifier: notifier}
}

func (c *Notify) Setup(ctx context.Context) error { return nil }

func (c *Notify) Execute(ctx context.Context) (scheduler.State, error) {
	if c.Notifier != nil {
		if err := c.Notifier.Send(ctx, c.Raw["text"]); err != nil {
			c.logger().Warn("notify failed", "error", err)
		}
	}
	return scheduler.Finished, nil
}

func (c *Notify) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *Notify) CanCompleteInBackground() bool { return false }

func (c *Notify) OnCancelled(ctx context.Context) error { return nil }
