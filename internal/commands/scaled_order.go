package commands

import (
	"context"
	"strconv"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"

	"github.com/shopspring/decimal"
)

// ScaledOrder builds a ladder of postOnly limit orders spread
// linearly between nearOffset and farOffset, splitting amount evenly
// across orderCount rungs. Supplemented per SPEC_FULL — spec §4.3
// names it only as "scaledOrder (builder)" without spelling out its
// arguments. It never suspends: it is orderCount synchronous
// limitOrder calls under one tag.
type ScaledOrder struct {
	Context
	Raw map[string]string

	orders []domain.BrokerOrder
}

func NewScaledOrder(ctx Context, params map[string]string) *ScaledOrder {
	defaults := map[string]string{
		"side": "", "amount": "0",
		"nearOffset": "", "farOffset": "",
		"orderCount": "1", "postOnly": "true", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &ScaledOrder{Context: ctx, Raw: defaults}
}

func (c *ScaledOrder) Setup(ctx context.Context) error { return nil }

func (c *ScaledOrder) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	count, err := strconv.Atoi(v.GetOr("orderCount", "1"))
	if err != nil || count < 1 {
		return scheduler.Finished, domain.NewInvalidArgument("orderCount must be a positive integer")
	}

	near, err := evalexpr.ParseOffset(v.GetOr("nearOffset", "0"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}
	far, err := evalexpr.ParseOffset(v.GetOr("farOffset", "0"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}

	ticker, err := c.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("ticker lookup failed", err)
	}
	quote := ticker.SideQuote(v.Side)
	nearPrice := near.ToAbsolutePrice(v.Side, quote)
	farPrice := far.ToAbsolutePrice(v.Side, quote)

	postOnly := v.GetOr("postOnly", "true") == "true"
	tag := v.GetOr("tag", "")

	totalAmount, err := decimal.NewFromString(v.GetOr("amount", "0"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument("invalid amount " + v.GetOr("amount", "0"))
	}
	if totalAmount.IsZero() {
		return scheduler.Finished, domain.NewZeroSize("scaledOrder amount is zero")
	}

	rungAmount := totalAmount.Div(decimal.NewFromInt(int64(count)))
	placed := decimal.Zero

	for i := 0; i < count; i++ {
		price := rungPrice(nearPrice, farPrice, i, count)
		if c.Table != nil {
			price = c.Table.RoundPrice(c.Symbol, price)
		}

		amount := rungAmount
		if i == count-1 {
			amount = totalAmount.Sub(placed) // absorb rounding remainder
		}
		if c.Table != nil {
			amount = c.Table.RoundAmount(c.Symbol, amount)
		}

		order, err := c.Port.LimitOrder(ctx, c.Symbol, amount, price, v.Side, postOnly, false)
		if err != nil {
			return scheduler.Finished, domain.NewAPITransient("limitOrder failed", err)
		}
		c.orders = append(c.orders, order)
		c.track(tag, &c.orders[len(c.orders)-1])
		placed = placed.Add(amount)
	}

	return scheduler.Finished, nil
}

// rungPrice linearly interpolates between near and far across count
// rungs, rung 0 at near and rung count-1 at far.
func rungPrice(near, far decimal.Decimal, i, count int) decimal.Decimal {
	if count == 1 {
		return near
	}
	frac := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(int64(count - 1)))
	return near.Add(far.Sub(near).Mul(frac))
}

func (c *ScaledOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *ScaledOrder) CanCompleteInBackground() bool { return false }

func (c *ScaledOrder) OnCancelled(ctx context.Context) error { return nil }
