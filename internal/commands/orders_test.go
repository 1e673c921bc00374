package commands

import (
	"context"
	"testing"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

func TestLimitOrder_Places(t *testing.T) {
	port := newFakePort()
	port.ticker = domain.Ticker{Bid: d("999"), Ask: d("1000")}
	ctx := newTestContext(port)

	cmd := NewLimitOrder(ctx, map[string]string{
		"side": "buy", "amount": "1", "offset": "10", "tag": "x",
	})
	state, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != 0 {
		t.Fatalf("expected Finished, got %v", state)
	}
	if port.limitOrderCalls != 1 {
		t.Fatalf("limitOrder calls = %d, want 1", port.limitOrderCalls)
	}
	if !cmd.order.Price.Equal(d("989")) {
		t.Fatalf("order price = %s, want 989", cmd.order.Price)
	}
	if orders := ctx.Session.OrdersByTag("x"); len(orders) != 1 {
		t.Fatalf("expected order tracked under tag x, got %d", len(orders))
	}
}

func TestMarketOrder_InfersEverythingFromPositionAll(t *testing.T) {
	port := newFakePort()
	port.positionSide = domain.Sell
	port.positionAmt = d("1")
	ctx := newTestContext(port)

	cmd := NewMarketOrder(ctx, map[string]string{
		"side": "sell", "amount": "1", "position": "all",
	})
	state, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != 0 {
		t.Fatalf("expected Finished, got %v", state)
	}
	if !cmd.order.IsFilled {
		t.Fatalf("expected market order to report filled")
	}
	if !port.lastIsEverything {
		t.Fatalf("expected isEverything to be inferred from position=all")
	}
}

func TestStopMarketOrder_Places(t *testing.T) {
	port := newFakePort()
	port.ticker = domain.Ticker{Bid: d("999"), Ask: d("1000")}
	ctx := newTestContext(port)

	cmd := NewStopMarketOrder(ctx, map[string]string{
		"side": "sell", "amount": "1", "offset": "50",
	})
	state, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != 0 {
		t.Fatalf("expected Finished, got %v", state)
	}
	if port.stopOrderCalls != 1 {
		t.Fatalf("stopOrder calls = %d, want 1", port.stopOrderCalls)
	}
	if !cmd.order.Price.Equal(d("949")) {
		t.Fatalf("order price = %s, want 949", cmd.order.Price)
	}
}

func TestScaledOrder_BuildsLadder(t *testing.T) {
	port := newFakePort()
	port.ticker = domain.Ticker{Bid: d("999"), Ask: d("1000")}
	ctx := newTestContext(port)

	cmd := NewScaledOrder(ctx, map[string]string{
		"side": "buy", "amount": "10",
		"nearOffset": "0", "farOffset": "100", "orderCount": "3",
	})
	state, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != 0 {
		t.Fatalf("expected Finished, got %v", state)
	}
	if len(cmd.orders) != 3 {
		t.Fatalf("expected 3 rungs, got %d", len(cmd.orders))
	}
	if !cmd.orders[0].Price.Equal(d("1000")) {
		t.Fatalf("rung 0 price = %s, want 1000", cmd.orders[0].Price)
	}
	if !cmd.orders[2].Price.Equal(d("1100")) {
		t.Fatalf("rung 2 price = %s, want 1100", cmd.orders[2].Price)
	}
	total := decimal.Zero
	for _, o := range cmd.orders {
		total = total.Add(o.Amount)
	}
	if !total.Equal(d("10")) {
		t.Fatalf("total rung amount = %s, want 10", total)
	}
}
