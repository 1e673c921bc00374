package commands

import (
	"context"
	"sync"

	"algotrade/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakePort is a scripted exchangeapi.Port used by command tests. It
// keeps orders in a map keyed by ID so tests can mutate fill state
// between polls.
type fakePort struct {
	mu sync.Mutex

	ticker   domain.Ticker
	balances []domain.WalletBalance
	position decimal.Decimal

	orders map[string]*domain.BrokerOrder
	nextID int

	limitOrderCalls  int
	cancelOrderCalls int
	stopOrderCalls   int

	lastIsEverything bool

	positionSide domain.Side
	positionAmt  decimal.Decimal
}

func newFakePort() *fakePort {
	return &fakePort{orders: make(map[string]*domain.BrokerOrder)}
}

func (f *fakePort) Init(ctx context.Context) error { return nil }
func (f *fakePort) AddSymbol(ctx context.Context, symbol string) (domain.SymbolData, error) {
	return domain.SymbolData{Symbol: symbol}, nil
}
func (f *fakePort) Terminate(ctx context.Context) error { return nil }

func (f *fakePort) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticker, nil
}

func (f *fakePort) WalletBalances(ctx context.Context) ([]domain.WalletBalance, error) {
	return f.balances, nil
}

func (f *fakePort) Position(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f.position, nil
}

func (f *fakePort) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, postOnly, reduceOnly bool) (domain.BrokerOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitOrderCalls++
	f.nextID++
	order := domain.BrokerOrder{
		ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeLimit,
		Price: price, Amount: amount, Remaining: amount, IsOpen: true,
		PostOnly: postOnly, ReduceOnly: reduceOnly,
	}
	f.orders[order.ID] = &order
	return order, nil
}

func (f *fakePort) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side domain.Side, isEverything bool) (domain.BrokerOrder, error) {
	f.lastIsEverything = isEverything
	order := domain.BrokerOrder{ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeMarket, Amount: amount, Executed: amount, IsFilled: true}
	return order, nil
}

func (f *fakePort) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, trigger domain.Trigger) (domain.BrokerOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopOrderCalls++
	order := domain.BrokerOrder{
		ID: uuid.New().String(), Symbol: symbol, Side: side, Type: domain.OrderTypeStop,
		Price: price, Amount: amount, Remaining: amount, IsOpen: true, Trigger: trigger,
	}
	f.orders[order.ID] = &order
	return order, nil
}

func (f *fakePort) ActiveOrders(ctx context.Context, symbol string, side domain.Side) ([]domain.BrokerOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BrokerOrder
	for _, o := range f.orders {
		if o.IsOpen && o.Symbol == symbol && o.Side == side {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakePort) CancelOrders(ctx context.Context, orders []domain.BrokerOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelOrderCalls++
	for _, o := range orders {
		if stored, ok := f.orders[o.ID]; ok {
			stored.IsOpen = false
		}
	}
	return nil
}

func (f *fakePort) Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	copy := *o
	return &copy, nil
}

func (f *fakePort) UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, order.ID)
	updated := order
	updated.ID = uuid.New().String()
	updated.Price = price
	f.orders[updated.ID] = &updated
	return updated, nil
}

func (f *fakePort) PositionToAmount(ctx context.Context, symbol string, positionSpec string, side domain.Side, amountSpec string) (domain.Side, decimal.Decimal, domain.Side, error) {
	return f.positionSide, f.positionAmt, f.positionSide.Opposite(), nil
}

// setFilled marks the order filled, as if the market traded through it.
func (f *fakePort) setFilled(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		o.IsFilled = true
		o.IsOpen = false
		o.Executed = o.Amount
		o.Remaining = decimal.Zero
	}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
