package commands

import (
	"context"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"
)

// ConditionMode selects between continueIf and stopIf semantics:
// both raise AbortSequence, just on opposite truth values (spec §4.3,
// resolved per the documented open question — see SPEC_FULL.md).
type ConditionMode int

const (
	ContinueIfMode ConditionMode = iota
	StopIfMode
)

// Condition implements continueIf/stopIf: evaluate a boolean
// expression and raise AbortSequence when it calls for a stop.
type Condition struct {
	Context
	Raw  map[string]string
	Mode ConditionMode
}

func NewCondition(ctx Context, mode ConditionMode, params map[string]string) *Condition {
	defaults := map[string]string{"if": "always", "value": ""}
	for k, v := range params {
		defaults[k] = v
	}
	return &Condition{Context: ctx, Raw: defaults, Mode: mode}
}

func (c *Condition) Setup(ctx context.Context) error { return nil }

func (c *Condition) Execute(ctx context.Context) (scheduler.State, error) {
	ticker, err := c.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("ticker lookup failed", err)
	}
	position, err := c.Port.Position(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("position lookup failed", err)
	}

	evalCtx := evalexpr.EvalContext{Now: time.Now(), Ticker: ticker, Position: position}
	result, err := evalexpr.EvaluateCondition(c.Raw["if"], c.Raw["value"], evalCtx)
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}

	stop := result
	if c.Mode == ContinueIfMode {
		stop = !result
	}
	if stop {
		return scheduler.Finished, domain.NewAbortSequence("condition triggered a sequence stop")
	}
	return scheduler.Finished, nil
}

func (c *Condition) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *Condition) CanCompleteInBackground() bool { return false }

func (c *Condition) OnCancelled(ctx context.Context) error { return nil }
