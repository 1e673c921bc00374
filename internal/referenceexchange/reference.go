// Package referenceexchange is an in-memory implementation of
// exchangeapi.Port, grounded on the teacher's paper-trading executor:
// virtual balances, immediate market fills, and open limit/stop
// orders that sit until CancelOrders or UpdateOrderPrice touches
// them. It exists for the test suite and for a PAPER trading mode; it
// is not a production exchange connector.
package referenceexchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"algotrade/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Port is the reference exchangeapi.Port. Zero value is not usable;
// construct with New.
type Port struct {
	mu sync.Mutex

	symbols   map[string]domain.SymbolData
	tickers   map[string]domain.Ticker
	balances  []domain.WalletBalance
	positions map[string]decimal.Decimal
	orders    map[string]*domain.BrokerOrder

	DefaultMinOrderSize decimal.Decimal
	DefaultPricePrec    int32
	DefaultAssetPrec    int32
}

// New builds an empty reference port. Callers seed it with SetTicker
// and Deposit before running command sequences against it.
func New() *Port {
	return &Port{
		symbols:             make(map[string]domain.SymbolData),
		tickers:             make(map[string]domain.Ticker),
		positions:           make(map[string]decimal.Decimal),
		orders:              make(map[string]*domain.BrokerOrder),
		DefaultMinOrderSize: decimal.NewFromFloat(0.001),
		DefaultPricePrec:    2,
		DefaultAssetPrec:    6,
	}
}

func (p *Port) Init(ctx context.Context) error      { return nil }
func (p *Port) Terminate(ctx context.Context) error { return nil }

// AddSymbol registers symbol with the port's default precision and
// minimum order size if it has not been seen before.
func (p *Port) AddSymbol(ctx context.Context, symbol string) (domain.SymbolData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.symbols[symbol]; ok {
		return d, nil
	}
	d := domain.SymbolData{
		Symbol:         symbol,
		MinOrderSize:   p.DefaultMinOrderSize,
		PricePrecision: p.DefaultPricePrec,
		AssetPrecision: p.DefaultAssetPrec,
	}
	p.symbols[symbol] = d
	return d, nil
}

// SetTicker replaces the current bid/ask/last for symbol. Tests and
// the PAPER mode's feed worker call this to drive price movement.
func (p *Port) SetTicker(symbol string, t domain.Ticker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickers[symbol] = t
}

// Deposit credits amount onto currency's wallet balance.
func (p *Port) Deposit(currency string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.balances {
		if p.balances[i].Currency == currency {
			p.balances[i].Amount = p.balances[i].Amount.Add(amount)
			p.balances[i].Available = p.balances[i].Available.Add(amount)
			return
		}
	}
	p.balances = append(p.balances, domain.WalletBalance{Currency: currency, Type: currency, Amount: amount, Available: amount})
}

func (p *Port) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tickers[symbol]
	if !ok {
		return domain.Ticker{}, fmt.Errorf("no ticker seeded for %s", symbol)
	}
	return t, nil
}

func (p *Port) WalletBalances(ctx context.Context) ([]domain.WalletBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.WalletBalance, len(p.balances))
	copy(out, p.balances)
	return out, nil
}

func (p *Port) Position(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[symbol], nil
}

func (p *Port) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, postOnly, reduceOnly bool) (domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order := domain.BrokerOrder{
		ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeLimit,
		Price: price, Amount: amount, Remaining: amount, IsOpen: true,
		PostOnly: postOnly, ReduceOnly: reduceOnly,
	}
	p.orders[order.ID] = &order
	return order, nil
}

func (p *Port) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side domain.Side, isEverything bool) (domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tickers[symbol]
	if !ok {
		return domain.BrokerOrder{}, fmt.Errorf("no ticker seeded for %s", symbol)
	}
	fillPrice := t.SideQuote(side)

	order := domain.BrokerOrder{
		ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeMarket,
		Price: fillPrice, Amount: amount, Executed: amount, IsFilled: true,
	}
	p.applyFill(symbol, side, amount)
	return order, nil
}

func (p *Port) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, trigger domain.Trigger) (domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order := domain.BrokerOrder{
		ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeStop,
		Price: price, Amount: amount, Remaining: amount, IsOpen: true, Trigger: trigger,
	}
	p.orders[order.ID] = &order
	return order, nil
}

func (p *Port) ActiveOrders(ctx context.Context, symbol string, side domain.Side) ([]domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.BrokerOrder
	for _, o := range p.orders {
		if o.IsOpen && o.Symbol == symbol && o.Side == side {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (p *Port) CancelOrders(ctx context.Context, orders []domain.BrokerOrder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range orders {
		if stored, ok := p.orders[o.ID]; ok {
			stored.IsOpen = false
		}
	}
	return nil
}

func (p *Port) Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[orderID]
	if !ok {
		return nil, nil
	}
	dup := *o
	return &dup, nil
}

// UpdateOrderPrice replaces order's price under a freshly minted ID,
// matching the contract commands/trailing_shared.go relies on: the
// old resting order is gone, the new one is open at the new price.
func (p *Port) UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.orders, order.ID)
	updated := order
	updated.ID = uuid.New().String()
	updated.Price = price
	p.orders[updated.ID] = &updated
	return updated, nil
}

// PositionToAmount resolves "all" to flattening the current position
// and any other value to an absolute target, delta'd against the
// current signed position (spec §8 scenario 6).
func (p *Port) PositionToAmount(ctx context.Context, symbol string, positionSpec string, side domain.Side, amountSpec string) (domain.Side, decimal.Decimal, domain.Side, error) {
	p.mu.Lock()
	current := p.positions[symbol]
	p.mu.Unlock()

	if strings.EqualFold(positionSpec, "all") {
		if current.IsZero() {
			return side, decimal.Zero, side.Opposite(), nil
		}
		newSide := domain.Sell
		if current.IsNegative() {
			newSide = domain.Buy
		}
		return newSide, current.Abs(), newSide.Opposite(), nil
	}

	target, err := decimal.NewFromString(positionSpec)
	if err != nil {
		return side, decimal.Zero, side.Opposite(), fmt.Errorf("invalid position spec %q: %w", positionSpec, err)
	}
	delta := target.Sub(current)
	newSide := domain.Buy
	if delta.IsNegative() {
		newSide = domain.Sell
	}
	return newSide, delta.Abs(), newSide.Opposite(), nil
}

func (p *Port) applyFill(symbol string, side domain.Side, amount decimal.Decimal) {
	signed := amount
	if side == domain.Sell {
		signed = amount.Neg()
	}
	p.positions[symbol] = p.positions[symbol].Add(signed)
}
