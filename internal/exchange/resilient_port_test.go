package exchange

import (
	"context"
	"testing"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

func TestResilientPort_LimitOrderWithoutAuditStore(t *testing.T) {
	p := newResilientPort("deribit", &fakePort{}, nil)
	ctx := context.Background()

	if _, err := p.LimitOrder(ctx, "BTC-PERPETUAL", decimal.NewFromInt(1), decimal.NewFromInt(1000), domain.Buy, true, false); err != nil {
		t.Fatalf("LimitOrder: %v", err)
	}
}

func TestResilientPort_BreakerOpensAfterFailures(t *testing.T) {
	inner := &failingPort{fakePort: &fakePort{}}
	p := newResilientPort("deribit", inner, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := p.Ticker(ctx, "BTC-PERPETUAL"); err == nil {
			t.Fatalf("expected the underlying failure to propagate")
		}
	}

	if _, err := p.Ticker(ctx, "BTC-PERPETUAL"); err == nil {
		t.Fatalf("expected the breaker to be open and reject the call before reaching the connector")
	}
	if inner.calls != 5 {
		t.Fatalf("calls = %d, want 5 (the 6th should have been rejected by the breaker)", inner.calls)
	}
}

type failingPort struct {
	*fakePort
	calls int
}

func (f *failingPort) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	f.calls++
	return domain.Ticker{}, domain.NewAPITransient("simulated failure", nil)
}
