package commands

import (
	"context"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"
)

// Wait sleeps for a parsed duration and never suspends on the
// scheduler's algo registry — it blocks its own foreground slot
// synchronously (spec §4.3).
type Wait struct {
	Context
	Raw map[string]string
}

func NewWait(ctx Context, params map[string]string) *Wait {
	defaults := map[string]string{"duration": "0"}
	for k, v := range params {
		defaults[k] = v
	}
	return &Wait{Context: ctx, Raw: defaults}
}

func (c *Wait) Setup(ctx context.Context) error { return nil }

func (c *Wait) Execute(ctx context.Context) (scheduler.State, error) {
	d, err := evalexpr.ParseDuration(c.Raw["duration"])
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}

	select {
	case <-ctx.Done():
		return scheduler.Finished, ctx.Err()
	case <-time.After(d):
	}
	return scheduler.Finished, nil
}

func (c *Wait) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *Wait) CanCompleteInBackground() bool { return false }

func (c *Wait) OnCancelled(ctx context.Context) error { return nil }
