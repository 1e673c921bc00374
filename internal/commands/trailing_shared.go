package commands

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/scheduler"

	"github.com/shopspring/decimal"
)

// trailState is the mutable state one ratchet step needs, shared by
// TrailingStop and the trailing phase of TrailingTakeProfit.
type trailState struct {
	order        domain.BrokerOrder
	tag          string
	side         domain.Side
	trailingKind evalexpr.OffsetKind
	trailingVal  decimal.Decimal
	lastPrice    decimal.Decimal
}

// resolveTrailingOffset converts a user-supplied offset into the kind
// the ratchet loop should keep reapplying: @X becomes a fixed tick
// distance recovered from the initial placement, N% stays a percent
// so the distance expands with price, plain ticks stay ticks (spec
// §4.3 "Offset parsing").
func resolveTrailingOffset(ctx context.Context, port interface {
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
}, symbol string, side domain.Side, offsetRaw string, orderPrice decimal.Decimal) (evalexpr.OffsetKind, decimal.Decimal) {
	spec, err := evalexpr.ParseOffset(offsetRaw)
	if err != nil {
		return evalexpr.OffsetTicks, decimal.Zero
	}
	if spec.Kind != evalexpr.OffsetAbsolute {
		return spec.Kind, spec.Value
	}
	ticker, err := port.Ticker(ctx, symbol)
	if err != nil {
		return evalexpr.OffsetTicks, decimal.Zero
	}
	initial := ticker.SideQuote(side)
	return evalexpr.OffsetTicks, initial.Sub(orderPrice).Abs()
}

// ratchetFavourable reports whether suggested is a tighter protective
// stop than lastPrice: for a sell (protecting a long) the stop only
// moves up, for a buy (protecting a short) it only moves down (spec
// §4.3/§8).
func ratchetFavourable(side domain.Side, suggested, lastPrice decimal.Decimal) bool {
	if side == domain.Sell {
		return suggested.GreaterThan(lastPrice)
	}
	return suggested.LessThan(lastPrice)
}

// trailStep runs one ratchet poll: fetch the order, check for fill,
// compute the suggested new stop price, and move it if favourable.
func trailStep(ctx context.Context, port exchangePort, session *domain.Session, s *trailState) (scheduler.State, error) {
	current, err := port.Order(ctx, s.order.ID)
	if err != nil {
		return scheduler.Finished, domain.NewAPITransient("order lookup failed", err)
	}
	if current == nil || current.IsFilled || !current.IsOpen {
		return scheduler.Finished, nil
	}

	ticker, err := port.Ticker(ctx, s.order.Symbol)
	if err != nil {
		return scheduler.KeepGoingBackOff, nil
	}

	// Recompute the same protective-stop formula used at placement
	// time, against the latest quote: it naturally ratchets toward the
	// market as price moves favourably.
	spec := evalexpr.OffsetSpec{Kind: s.trailingKind, Value: s.trailingVal}
	suggested := spec.ToAbsolutePrice(s.side, ticker.SideQuote(s.side))

	if !ratchetFavourable(s.side, suggested, s.lastPrice) {
		return scheduler.KeepGoingBackOff, nil
	}

	updated, err := port.UpdateOrderPrice(ctx, *current, suggested)
	if err != nil {
		return scheduler.KeepGoingBackOff, nil
	}
	session.Replace(s.tag, s.order.ID, &updated)
	s.order = updated
	s.lastPrice = suggested
	return scheduler.KeepGoing, nil
}

// exchangePort is the narrow slice of exchangeapi.Port trailStep
// needs; kept local so this file does not need the full interface
// import cycle-free name.
type exchangePort interface {
	Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error)
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
	UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error)
}
