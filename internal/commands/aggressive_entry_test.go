package commands

import (
	"context"
	"testing"
	"time"

	"algotrade/internal/domain"
)

// TestAggressiveEntry_SlippageAbort mirrors spec §8 scenario 4: a buy
// resting at the bid from 3000 up through 3010 and 3020 aborts once the
// bid reaches 3022 (> 3001+20, the starting ask plus the limit),
// leaving 3 limitOrder calls and a cancel of the still-active order.
func TestAggressiveEntry_SlippageAbort(t *testing.T) {
	port := newFakePort()
	port.ticker = domain.Ticker{Bid: d("2999"), Ask: d("3001")}
	ctx := newTestContext(port)

	cmd := NewAggressiveEntry(ctx, map[string]string{
		"side": "buy", "amount": "2", "slippageLimit": "20",
	})
	if _, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !cmd.slippagePrice.Equal(d("3021")) {
		t.Fatalf("slippagePrice = %s, want 3021", cmd.slippagePrice)
	}

	// Place at 3000.
	port.ticker = domain.Ticker{Bid: d("3000"), Ask: d("3001")}
	state, err := cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (place 1): %v", err)
	}
	if state != 2 {
		t.Fatalf("expected KeepGoingBackOff after placing, got %v", state)
	}

	// Price moves; order no longer at top of book, gets replaced at 3010.
	port.ticker = domain.Ticker{Bid: d("3010"), Ask: d("3011")}
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (poll/replace 1): %v", err)
	}
	if state != 1 {
		t.Fatalf("expected KeepGoing on replace, got %v", state)
	}
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (place 2): %v", err)
	}
	if state != 2 {
		t.Fatalf("expected KeepGoingBackOff after placing, got %v", state)
	}

	// Price moves again; replaced at 3020.
	port.ticker = domain.Ticker{Bid: d("3020"), Ask: d("3021")}
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (poll/replace 2): %v", err)
	}
	if state != 1 {
		t.Fatalf("expected KeepGoing on replace, got %v", state)
	}
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (place 3): %v", err)
	}
	if state != 2 {
		t.Fatalf("expected KeepGoingBackOff after placing, got %v", state)
	}

	// Bid crosses the slippage bound (3022 > 3021): abort and cancel.
	port.ticker = domain.Ticker{Bid: d("3022"), Ask: d("3023")}
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (slippage abort): %v", err)
	}
	if state != 0 { // Finished
		t.Fatalf("expected Finished on slippage abort, got %v", state)
	}

	if port.limitOrderCalls != 3 {
		t.Fatalf("limitOrder calls = %d, want 3", port.limitOrderCalls)
	}
	if port.cancelOrderCalls != 3 {
		t.Fatalf("cancelOrders calls = %d, want 3", port.cancelOrderCalls)
	}
}

// TestAggressiveEntry_TimeLimitAbort mirrors spec §8 scenario 5: with
// fills never arriving, a 20ms time limit (scaled down from the
// spec's 20s) elapses and the active order is cancelled.
func TestAggressiveEntry_TimeLimitAbort(t *testing.T) {
	port := newFakePort()
	port.ticker = domain.Ticker{Bid: d("999"), Ask: d("1000")}
	ctx := newTestContext(port)

	cmd := NewAggressiveEntry(ctx, map[string]string{
		"side": "buy", "amount": "1", "timeLimit": "0.02s",
	})
	if _, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	state, err := cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (place): %v", err)
	}
	if state != 2 {
		t.Fatalf("expected KeepGoingBackOff after placing, got %v", state)
	}

	cmd.startedAt = time.Now().Add(-21 * time.Millisecond)
	state, err = cmd.BackgroundExecute(context.Background())
	if err != nil {
		t.Fatalf("BackgroundExecute (time limit): %v", err)
	}
	if state != 0 {
		t.Fatalf("expected Finished after time limit, got %v", state)
	}
	if port.cancelOrderCalls != 1 {
		t.Fatalf("cancelOrders calls = %d, want 1", port.cancelOrderCalls)
	}
}
