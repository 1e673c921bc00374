package commands

import (
	"context"
	"strings"

	"algotrade/internal/domain"
	"algotrade/internal/scheduler"
)

// TrailingStop places an initial stop, then ratchets it toward the
// market as price moves favourably (spec §4.3).
type TrailingStop struct {
	Context
	Raw   map[string]string
	state trailState
}

func NewTrailingStop(ctx Context, params map[string]string) *TrailingStop {
	defaults := map[string]string{
		"side": "", "offset": "", "amount": "0", "position": "",
		"trigger": "last", "background": "true", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &TrailingStop{Context: ctx, Raw: defaults}
}

func (c *TrailingStop) Setup(ctx context.Context) error { return nil }

func (c *TrailingStop) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	order, err := c.Port.StopOrder(ctx, c.Symbol, v.Amount, v.OrderPrice, v.Side, v.Trigger)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("stopOrder failed", err)
	}
	order.Symbol = c.Symbol

	tag := v.GetOr("tag", "")
	c.track(tag, &order)

	kind, val := resolveTrailingOffset(ctx, c.Port, c.Symbol, v.Side, v.GetOr("offset", "0"), v.OrderPrice)
	c.state = trailState{
		order:        order,
		tag:          tag,
		side:         v.Side,
		trailingKind: kind,
		trailingVal:  val,
		lastPrice:    v.OrderPrice,
	}

	return scheduler.KeepGoingBackOff, nil
}

func (c *TrailingStop) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return trailStep(ctx, c.Port, c.Session, &c.state)
}

func (c *TrailingStop) CanCompleteInBackground() bool {
	return strings.EqualFold(c.Raw["background"], "true")
}

func (c *TrailingStop) OnCancelled(ctx context.Context) error {
	return c.Port.CancelOrders(ctx, []domain.BrokerOrder{c.state.order})
}
