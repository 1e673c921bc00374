// Package exchangeapi defines the capability set the command engine
// consumes from a concrete exchange connector (spec §6). It is the
// only boundary between the core and per-exchange REST/WebSocket
// adapters — those adapters are out of scope for this module (spec
// §1) and are expected to be supplied by the host application.
package exchangeapi

import (
	"context"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

// Port is the stateless low-level surface every exchange connector
// must implement. Every method may fail (network, malformed response)
// and should return a domain ApiTransient-flavoured error in that
// case; the core does not retry these calls except where the spec
// explicitly says so (aggressive entry, stop-and-take-profit).
type Port interface {
	Init(ctx context.Context) error
	AddSymbol(ctx context.Context, symbol string) (domain.SymbolData, error)
	Terminate(ctx context.Context) error

	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
	WalletBalances(ctx context.Context) ([]domain.WalletBalance, error)
	// Position returns the current signed net position for symbol:
	// positive is long, negative short, zero flat. Used by
	// positionToAmount and by stopIf/continueIf's position predicates.
	Position(ctx context.Context, symbol string) (decimal.Decimal, error)

	LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, postOnly, reduceOnly bool) (domain.BrokerOrder, error)
	MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side domain.Side, isEverything bool) (domain.BrokerOrder, error)
	StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, trigger domain.Trigger) (domain.BrokerOrder, error)

	ActiveOrders(ctx context.Context, symbol string, side domain.Side) ([]domain.BrokerOrder, error)
	CancelOrders(ctx context.Context, orders []domain.BrokerOrder) error
	Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error)
	UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error)

	// PositionToAmount resolves a target position into a concrete
	// side/amount/oppositeSide triple (spec §4.1 step 4).
	PositionToAmount(ctx context.Context, symbol string, positionSpec string, side domain.Side, amountSpec string) (newSide domain.Side, amount decimal.Decimal, oppositeSide domain.Side, err error)
}
