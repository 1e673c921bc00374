// integration exercises the full message-to-fill path against the
// reference exchange: parse a block, start a trailing stop as a
// background algo order, and cancel it from the same session. It
// mirrors the teacher's own place-then-cancel integration smoke test,
// but against the in-memory paper port rather than a live exchange
// connector.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/exchange"
	"algotrade/internal/exchangeapi"
	"algotrade/internal/infra"
	"algotrade/internal/referenceexchange"

	"github.com/shopspring/decimal"
)

func main() {
	defer infra.Recover()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("starting reference exchange integration smoke test")

	port := referenceexchange.New()
	port.SetTicker("BTC-PERPETUAL", domain.Ticker{
		Bid:       decimal.NewFromInt(99900),
		Ask:       decimal.NewFromInt(100000),
		LastPrice: decimal.NewFromInt(99950),
	})

	manager := exchange.New(func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error) {
		return port, nil
	})
	manager.Logger = slog.Default()
	defer manager.Shutdown()

	creds := []domain.Credentials{{Name: "paper", Exchange: "reference", Key: "k", Secret: "s"}}

	slog.Info("STEP 1: starting a trailing stop, then cancelling it from the same session")
	manager.ExecuteMessage(context.Background(),
		"reference(BTC-PERPETUAL) { trailingStop(side=sell, amount=0.001, offset=100, tag=smoke); cancelOrders(who=session); }",
		creds)

	time.Sleep(200 * time.Millisecond)
	slog.Info("integration smoke test finished")
}
