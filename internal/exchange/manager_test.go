package exchange

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/exchangeapi"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakePort struct {
	mu sync.Mutex

	addSymbolCalls int
	initCalls      int
	terminateCalls int
}

func (f *fakePort) Init(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return nil
}

func (f *fakePort) AddSymbol(ctx context.Context, symbol string) (domain.SymbolData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addSymbolCalls++
	return domain.SymbolData{Symbol: symbol}, nil
}

func (f *fakePort) Terminate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminateCalls++
	return nil
}

func (f *fakePort) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	return domain.Ticker{Bid: decimal.NewFromInt(999), Ask: decimal.NewFromInt(1000)}, nil
}

func (f *fakePort) WalletBalances(ctx context.Context) ([]domain.WalletBalance, error) {
	return nil, nil
}

func (f *fakePort) Position(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakePort) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, postOnly, reduceOnly bool) (domain.BrokerOrder, error) {
	return domain.BrokerOrder{ID: uuid.New().String(), Symbol: symbol, Side: side, Amount: amount, Price: price, IsFilled: true}, nil
}

func (f *fakePort) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side domain.Side, isEverything bool) (domain.BrokerOrder, error) {
	return domain.BrokerOrder{ID: uuid.New().String(), Symbol: symbol, Side: side, Amount: amount, Executed: amount, IsFilled: true}, nil
}

func (f *fakePort) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, trigger domain.Trigger) (domain.BrokerOrder, error) {
	return domain.BrokerOrder{ID: uuid.New().String(), Symbol: symbol, Side: side, Amount: amount, Price: price, IsOpen: true}, nil
}

func (f *fakePort) ActiveOrders(ctx context.Context, symbol string, side domain.Side) ([]domain.BrokerOrder, error) {
	return nil, nil
}

func (f *fakePort) CancelOrders(ctx context.Context, orders []domain.BrokerOrder) error { return nil }

func (f *fakePort) Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error) {
	return nil, nil
}

func (f *fakePort) UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error) {
	order.Price = price
	return order, nil
}

func (f *fakePort) PositionToAmount(ctx context.Context, symbol string, positionSpec string, side domain.Side, amountSpec string) (domain.Side, decimal.Decimal, domain.Side, error) {
	return side, decimal.NewFromInt(1), side.Opposite(), nil
}

func testManager(t *testing.T) (*Manager, *sync.Map) {
	opened := &sync.Map{}
	m := New(func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error) {
		p := &fakePort{}
		opened.Store(creds.PoolKey(), p)
		return p, nil
	})
	m.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	m.TeardownGrace = 10 * time.Millisecond
	return m, opened
}

func TestExecuteMessage_RunsSingleBlock(t *testing.T) {
	m, opened := testManager(t)
	creds := []domain.Credentials{{Name: "main", Exchange: "deribit", Key: "k", Secret: "s"}}

	m.ExecuteMessage(context.Background(), "deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=10); }", creds)

	v, ok := opened.Load(creds[0].PoolKey())
	if !ok {
		t.Fatalf("expected the deribit credentials to have been opened")
	}
	p := v.(*fakePort)
	if p.addSymbolCalls != 1 {
		t.Fatalf("addSymbolCalls = %d, want 1", p.addSymbolCalls)
	}
}

func TestExecuteMessage_UnmatchedExchangeIsSkipped(t *testing.T) {
	m, opened := testManager(t)
	creds := []domain.Credentials{{Name: "main", Exchange: "deribit", Key: "k", Secret: "s"}}

	m.ExecuteMessage(context.Background(), "binance(BTCUSDT) { marketOrder(side=buy, amount=1); }", creds)

	count := 0
	opened.Range(func(_, _ any) bool { count++; return true })
	if count != 0 {
		t.Fatalf("expected no exchange to be opened for an unmatched credentials name, opened %d", count)
	}
}

func TestExecuteMessage_ForwardsAlertRemainderToNotifier(t *testing.T) {
	m, _ := testManager(t)
	creds := []domain.Credentials{{Name: "main", Exchange: "deribit", Key: "k", Secret: "s"}}
	notifier := &recordingNotifier{}
	m.Notifier = notifier

	msg := `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=10); } {!} filled`
	m.ExecuteMessage(context.Background(), msg, creds)

	if len(notifier.messages) != 1 || notifier.messages[0] != "filled" {
		t.Fatalf("expected notifier to receive %q, got %v", "filled", notifier.messages)
	}
}

func TestExecuteMessage_TwoBlocksSameExchangeRunSerially(t *testing.T) {
	m, opened := testManager(t)
	creds := []domain.Credentials{{Name: "main", Exchange: "deribit", Key: "k", Secret: "s"}}

	msg := `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=10); } deribit(ETH-PERPETUAL) { marketOrder(side=sell, amount=1); }`
	m.ExecuteMessage(context.Background(), msg, creds)

	v, ok := opened.Load(creds[0].PoolKey())
	if !ok {
		t.Fatalf("expected the deribit credentials to have been opened")
	}
	p := v.(*fakePort)
	if p.addSymbolCalls != 2 {
		t.Fatalf("addSymbolCalls = %d, want 2 (both blocks share the one pooled connection)", p.addSymbolCalls)
	}
	if p.initCalls != 1 {
		t.Fatalf("initCalls = %d, want 1 (second block should reuse the pool, not reopen)", p.initCalls)
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Send(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}
