package commands

import (
	"context"
	"strings"

	"algotrade/internal/domain"
	"algotrade/internal/scheduler"
)

// MarketOrder places one market order, inferring isEverything from a
// position spec of "all" (spec §4.3).
type MarketOrder struct {
	Context
	Raw map[string]string

	order domain.BrokerOrder
}

func NewMarketOrder(ctx Context, params map[string]string) *MarketOrder {
	defaults := map[string]string{
		"side": "", "amount": "0", "position": "", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &MarketOrder{Context: ctx, Raw: defaults}
}

func (c *MarketOrder) Setup(ctx context.Context) error { return nil }

func (c *MarketOrder) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	isEverything := strings.EqualFold(v.GetOr("position", ""), "all")

	order, err := c.Port.MarketOrder(ctx, c.Symbol, v.Amount, v.Side, isEverything)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("marketOrder failed", err)
	}
	c.order = order
	c.track(v.GetOr("tag", ""), &c.order)
	return scheduler.Finished, nil
}

func (c *MarketOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *MarketOrder) CanCompleteInBackground() bool { return false }

func (c *MarketOrder) OnCancelled(ctx context.Context) error { return nil }
