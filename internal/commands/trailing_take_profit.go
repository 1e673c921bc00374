package commands

import (
	"context"
	"strings"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"

	"github.com/shopspring/decimal"
)

type ttpPhase int

const (
	phaseWaitTrigger ttpPhase = iota
	phaseTrailing
)

// TrailingTakeProfit is a two-phase algo order (spec §4.3): phase 1
// waits for price to cross a trigger price without placing anything
// on the book; phase 2 places the stop and delegates to the same
// ratchet loop TrailingStop uses.
type TrailingTakeProfit struct {
	Context
	Raw map[string]string

	phase        ttpPhase
	triggerPrice decimal.Decimal
	side         domain.Side
	trigger      domain.Trigger
	amount       decimal.Decimal
	offsetRaw    string
	tag          string
	background   bool

	state trailState
}

func NewTrailingTakeProfit(ctx Context, params map[string]string) *TrailingTakeProfit {
	defaults := map[string]string{
		"side": "", "offset": "", "triggerOffset": "1%",
		"amount": "0", "position": "", "trigger": "last",
		"background": "true", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &TrailingTakeProfit{Context: ctx, Raw: defaults}
}

func (c *TrailingTakeProfit) Setup(ctx context.Context) error { return nil }

func (c *TrailingTakeProfit) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	triggerSpec, err := evalexpr.ParseOffset(v.GetOr("triggerOffset", "1%"))
	if err != nil {
		return scheduler.Finished, domain.NewInvalidArgument(err.Error())
	}

	ticker, err := c.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("ticker lookup failed", err)
	}

	// The trigger moves favourably away from side's own quote: applying
	// the offset with the opposite side's sign, anchored on side's own
	// quote, is what makes a rising bid arm a sell-side trigger.
	c.triggerPrice = triggerSpec.ToAbsolutePrice(v.OppositeSide, ticker.SideQuote(v.Side))
	c.side = v.Side
	c.trigger = v.Trigger
	c.amount = v.Amount
	c.offsetRaw = v.GetOr("offset", "0")
	c.tag = v.GetOr("tag", "")
	c.background = strings.EqualFold(v.GetOr("background", "true"), "true")
	c.phase = phaseWaitTrigger

	return scheduler.KeepGoingBackOff, nil
}

func (c *TrailingTakeProfit) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	if c.phase == phaseWaitTrigger {
		ticker, err := c.Port.Ticker(ctx, c.Symbol)
		if err != nil {
			return scheduler.KeepGoingBackOff, nil
		}
		price := ticker.FavourablePrice(c.side)
		if !crossedTrigger(c.side, price, c.triggerPrice) {
			return scheduler.KeepGoingBackOff, nil
		}

		offsetSpec, err := evalexpr.ParseOffset(c.offsetRaw)
		if err != nil {
			return scheduler.Finished, domain.NewInvalidArgument(err.Error())
		}
		stopPrice := offsetSpec.ToAbsolutePrice(c.side, ticker.SideQuote(c.side))

		order, err := c.Port.StopOrder(ctx, c.Symbol, c.amount, stopPrice, c.side, c.trigger)
		if err != nil {
			return scheduler.Finished, domain.NewAPITransient("stopOrder failed", err)
		}
		order.Symbol = c.Symbol
		c.track(c.tag, &order)

		kind, val := resolveTrailingOffset(ctx, c.Port, c.Symbol, c.side, c.offsetRaw, stopPrice)
		c.state = trailState{
			order:        order,
			tag:          c.tag,
			side:         c.side,
			trailingKind: kind,
			trailingVal:  val,
			lastPrice:    stopPrice,
		}
		c.phase = phaseTrailing
		return scheduler.KeepGoing, nil
	}

	return trailStep(ctx, c.Port, c.Session, &c.state)
}

// crossedTrigger reports whether the favourable price has moved past
// the trigger in the direction that benefits side: up for a sell,
// down for a buy.
func crossedTrigger(side domain.Side, price, trigger decimal.Decimal) bool {
	if side == domain.Sell {
		return price.GreaterThanOrEqual(trigger)
	}
	return price.LessThanOrEqual(trigger)
}

func (c *TrailingTakeProfit) CanCompleteInBackground() bool { return c.background }

func (c *TrailingTakeProfit) OnCancelled(ctx context.Context) error {
	if c.phase == phaseWaitTrigger {
		return nil
	}
	return c.Port.CancelOrders(ctx, []domain.BrokerOrder{c.state.order})
}
