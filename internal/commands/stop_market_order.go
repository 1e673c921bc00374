package commands

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/scheduler"
)

// StopMarketOrder places one stop order and never suspends.
type StopMarketOrder struct {
	Context
	Raw map[string]string

	order domain.BrokerOrder
}

func NewStopMarketOrder(ctx Context, params map[string]string) *StopMarketOrder {
	defaults := map[string]string{
		"side": "", "offset": "", "amount": "0", "trigger": "last", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &StopMarketOrder{Context: ctx, Raw: defaults}
}

func (c *StopMarketOrder) Setup(ctx context.Context) error { return nil }

func (c *StopMarketOrder) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	order, err := c.Port.StopOrder(ctx, c.Symbol, v.Amount, v.OrderPrice, v.Side, v.Trigger)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("stopOrder failed", err)
	}
	c.order = order
	c.track(v.GetOr("tag", ""), &c.order)
	return scheduler.Finished, nil
}

func (c *StopMarketOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *StopMarketOrder) CanCompleteInBackground() bool { return false }

func (c *StopMarketOrder) OnCancelled(ctx context.Context) error { return nil }
