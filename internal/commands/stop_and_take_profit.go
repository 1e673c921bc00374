package commands

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"
)

// StopAndTakeProfit places a reduce-only take-profit limit and a
// protective stop-market together, then waits for one to resolve and
// cancels the other, best-effort (spec §4.3).
type StopAndTakeProfit struct {
	Context
	Raw map[string]string

	tpOrder domain.BrokerOrder
	slOrder domain.BrokerOrder
	tag     string
}

func NewStopAndTakeProfit(ctx Context, params map[string]string) *StopAndTakeProfit {
	defaults := map[string]string{
		"side": "", "tp": "", "sl": "", "amount": "0", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &StopAndTakeProfit{Context: ctx, Raw: defaults}
}

func (c *StopAndTakeProfit) Setup(ctx context.Context) error { return nil }

func (c *StopAndTakeProfit) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	tpSpec, err := evalexpr.ParseOffset(v.GetOr("tp", "0"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}
	slSpec, err := evalexpr.ParseOffset(v.GetOr("sl", "0"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}

	ticker, err := c.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("ticker lookup failed", err)
	}

	tpPrice := tpSpec.ToAbsolutePrice(v.OppositeSide, ticker.SideQuote(v.Side))
	slPrice := slSpec.ToAbsolutePrice(v.Side, ticker.SideQuote(v.Side))
	if c.Table != nil {
		tpPrice = c.Table.RoundPrice(c.Symbol, tpPrice)
		slPrice = c.Table.RoundPrice(c.Symbol, slPrice)
	}

	tpOrder, err := c.Port.LimitOrder(ctx, c.Symbol, v.Amount, tpPrice, v.Side, true, true)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("take-profit limitOrder failed", err)
	}
	slOrder, err := c.Port.StopOrder(ctx, c.Symbol, v.Amount, slPrice, v.Side, v.Trigger)
	if err != nil {
		c.Port.CancelOrders(ctx, []domain.BrokerOrder{tpOrder})
		return scheduler.Finished, domain.NewAPITransient("stop-loss stopOrder failed", err)
	}

	c.tpOrder, c.slOrder = tpOrder, slOrder
	c.tag = v.GetOr("tag", "")
	c.track(c.tag, &c.tpOrder)
	c.track(c.tag, &c.slOrder)

	return scheduler.KeepGoingBackOff, nil
}

func (c *StopAndTakeProfit) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	tp, err := c.Port.Order(ctx, c.tpOrder.ID)
	if err != nil {
		return scheduler.KeepGoingBackOff, nil
	}
	if tp != nil && (tp.IsFilled || !tp.IsOpen) {
		c.Port.CancelOrders(ctx, []domain.BrokerOrder{c.slOrder})
		return scheduler.Finished, nil
	}

	sl, err := c.Port.Order(ctx, c.slOrder.ID)
	if err != nil {
		return scheduler.KeepGoingBackOff, nil
	}
	if sl != nil && (sl.IsFilled || !sl.IsOpen) {
		c.Port.CancelOrders(ctx, []domain.BrokerOrder{c.tpOrder})
		return scheduler.Finished, nil
	}

	return scheduler.KeepGoingBackOff, nil
}

func (c *StopAndTakeProfit) CanCompleteInBackground() bool { return false }

func (c *StopAndTakeProfit) OnCancelled(ctx context.Context) error {
	c.Port.CancelOrders(ctx, []domain.BrokerOrder{c.tpOrder, c.slOrder})
	return nil
}
