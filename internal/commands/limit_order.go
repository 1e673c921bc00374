package commands

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/scheduler"
)

// LimitOrder places one limit order and never suspends (spec §4.3).
type LimitOrder struct {
	Context
	Raw map[string]string

	order domain.BrokerOrder
}

func NewLimitOrder(ctx Context, params map[string]string) *LimitOrder {
	defaults := map[string]string{
		"side": "", "amount": "0", "offset": "",
		"postOnly": "false", "reduceOnly": "false", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &LimitOrder{Context: ctx, Raw: defaults}
}

func (c *LimitOrder) Setup(ctx context.Context) error { return nil }

func (c *LimitOrder) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	postOnly := v.GetOr("postOnly", "false") == "true"
	reduceOnly := v.GetOr("reduceOnly", "false") == "true"

	order, err := c.Port.LimitOrder(ctx, c.Symbol, v.Amount, v.OrderPrice, v.Side, postOnly, reduceOnly)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("limitOrder failed", err)
	}
	c.order = order
	c.track(v.GetOr("tag", ""), &c.order)
	return scheduler.Finished, nil
}

func (c *LimitOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *LimitOrder) CanCompleteInBackground() bool { return false }

func (c *LimitOrder) OnCancelled(ctx context.Context) error { return nil }
