package commands

import (
	"context"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"

	"github.com/shopspring/decimal"
)

// AggressiveEntry is a synthetic market-taker (spec §4.3): it chases
// the top of book with post-only limit orders, replacing them as
// price moves, until the requested amount is filled, a time limit
// elapses, or slippage exceeds a bound.
type AggressiveEntry struct {
	Context
	Raw map[string]string

	side         domain.Side
	tag          string
	amountLeft   decimal.Decimal
	minOrderSize decimal.Decimal

	timeLimit     time.Duration
	hasTimeLimit  bool
	startedAt     time.Time
	slippagePrice decimal.Decimal
	hasSlippage   bool

	activeOrder *domain.BrokerOrder

	placeAttempts int
	replaceCount  int
}

func NewAggressiveEntry(ctx Context, params map[string]string) *AggressiveEntry {
	defaults := map[string]string{
		"side": "", "amount": "0", "position": "",
		"timeLimit": "", "slippageLimit": "", "tag": "",
	}
	for k, v := range params {
		defaults[k] = v
	}
	return &AggressiveEntry{Context: ctx, Raw: defaults}
}

func (c *AggressiveEntry) Setup(ctx context.Context) error { return nil }

func (c *AggressiveEntry) Execute(ctx context.Context) (scheduler.State, error) {
	v, err := c.normalize(ctx, c.Raw)
	if err != nil {
		return scheduler.Finished, err
	}

	c.side = v.Side
	c.tag = v.GetOr("tag", "")
	c.amountLeft = v.Amount
	c.startedAt = time.Now()

	if sym, ok := c.Table.Get(c.Symbol); ok {
		c.minOrderSize = sym.MinOrderSize
	}

	if raw := v.GetOr("timeLimit", ""); raw != "" {
		d, err := evalexpr.ParseDuration(raw)
		if err != nil {
			return scheduler.Finished, domain.NewInvalidArgument(err.Error())
		}
		c.timeLimit = d
		c.hasTimeLimit = true
	}

	if raw := v.GetOr("slippageLimit", ""); raw != "" {
		spec, err := evalexpr.ParseOffset(raw)
		if err != nil {
			return scheduler.Finished, domain.NewInvalidArgument(err.Error())
		}
		ticker, err := c.Port.Ticker(ctx, c.Symbol)
		if err != nil {
			return scheduler.Finished, domain.NewAPITransient("ticker lookup failed", err)
		}
		// The bound is measured from the side's own quote at start: the
		// ask for a buy, the bid for a sell.
		c.slippagePrice = spec.ToAbsolutePrice(c.side, ticker.SideQuote(c.side))
		c.hasSlippage = true
	}

	if c.amountLeft.LessThan(c.minOrderSize) {
		return scheduler.Finished, nil
	}
	return scheduler.KeepGoingBackOff, nil
}

// topOfBook is the price aggressiveEntry rests a maker order at: the
// best bid for a buy, the best ask for a sell (spec §4.3 step 3).
func topOfBook(ticker domain.Ticker, side domain.Side) decimal.Decimal {
	if side == domain.Buy {
		return ticker.Bid
	}
	return ticker.Ask
}

func (c *AggressiveEntry) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	if c.amountLeft.LessThan(c.minOrderSize) {
		return scheduler.Finished, nil
	}

	if c.hasTimeLimit && time.Since(c.startedAt) >= c.timeLimit {
		c.cancelActive(ctx)
		return scheduler.Finished, nil
	}

	price := topOfBook(c.ticker(ctx), c.side)

	if c.hasSlippage && slippageExceeded(c.side, price, c.slippagePrice) {
		c.cancelActive(ctx)
		return scheduler.Finished, nil
	}

	if c.activeOrder == nil {
		return c.placeActive(ctx, price)
	}
	return c.pollActive(ctx, price)
}

func (c *AggressiveEntry) ticker(ctx context.Context) domain.Ticker {
	t, err := c.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return domain.Ticker{}
	}
	return t
}

// slippageExceeded reports whether price has moved past the allowed
// bound: too high for a buy, too low for a sell.
func slippageExceeded(side domain.Side, price, limit decimal.Decimal) bool {
	if side == domain.Buy {
		return price.GreaterThan(limit)
	}
	return price.LessThan(limit)
}

func (c *AggressiveEntry) placeActive(ctx context.Context, price decimal.Decimal) (scheduler.State, error) {
	var order domain.BrokerOrder
	var err error
	for i := 0; i < 20; i++ {
		order, err = c.Port.LimitOrder(ctx, c.Symbol, c.amountLeft, price, c.side, true, false)
		if err == nil {
			break
		}
	}
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("limitOrder failed after retries", err)
	}
	order.Symbol = c.Symbol
	order.Price = price
	c.activeOrder = &order
	c.track(c.tag, c.activeOrder)
	c.placeAttempts++
	return scheduler.KeepGoingBackOff, nil
}

func (c *AggressiveEntry) pollActive(ctx context.Context, price decimal.Decimal) (scheduler.State, error) {
	current, err := c.Port.Order(ctx, c.activeOrder.ID)
	if err != nil || current == nil {
		return scheduler.KeepGoingBackOff, nil
	}

	switch {
	case current.IsFilled:
		c.amountLeft = c.amountLeft.Sub(current.Executed)
		c.activeOrder = nil
		return scheduler.KeepGoing, nil
	case !current.IsOpen:
		return scheduler.Finished, domain.NewInvalidArgument("aggressiveEntry order closed without filling")
	case !current.Price.Equal(price):
		c.Port.CancelOrders(ctx, []domain.BrokerOrder{*current})
		c.amountLeft = c.amountLeft.Sub(current.Executed)
		c.activeOrder = nil
		c.replaceCount++
		return scheduler.KeepGoing, nil
	default:
		return scheduler.KeepGoingBackOff, nil
	}
}

func (c *AggressiveEntry) cancelActive(ctx context.Context) {
	if c.activeOrder == nil {
		return
	}
	c.Port.CancelOrders(ctx, []domain.BrokerOrder{*c.activeOrder})
	c.activeOrder = nil
}

func (c *AggressiveEntry) CanCompleteInBackground() bool { return true }

// InitialWait implements scheduler.InitialWaiter: the first background
// poll, which is the one that places the first order, runs two seconds
// later than minDelay (spec §4.3 step 5).
func (c *AggressiveEntry) InitialWait(minDelay time.Duration) time.Duration {
	return minDelay + 2*time.Second
}

func (c *AggressiveEntry) OnCancelled(ctx context.Context) error {
	c.cancelActive(ctx)
	return nil
}
