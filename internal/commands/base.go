// Package commands implements the command catalogue of spec §4.3:
// one type per command, each satisfying the scheduler's Command
// contract. Every command normalizes its arguments through
// internal/args before doing anything exchange-facing.
package commands

import (
	"context"
	"log/slog"
	"time"

	"algotrade/internal/args"
	"algotrade/internal/domain"
	"algotrade/internal/exchangeapi"

	"github.com/google/uuid"
)

// Context is the per-exchange handle every command is built with: the
// port to call, the symbol it trades, the session it tracks orders
// under, and the polling bounds the scheduler will use if the command
// suspends.
type Context struct {
	Port     exchangeapi.Port
	Symbol   string
	Session  *domain.Session
	Table    *domain.SymbolTable
	Registry *domain.AlgoRegistry
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger
}

func (c Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Context) normalizer() *args.Normalizer {
	return &args.Normalizer{Port: c.Port, Symbol: c.Symbol, Table: c.Table}
}

// normalize runs the shared pipeline over raw, merged from the
// command's own defaults and the parsed argument list.
func (c Context) normalize(ctx context.Context, raw map[string]string) (args.Values, error) {
	return c.normalizer().Run(ctx, raw)
}

// track records order under tag in the session, unconditionally (an
// empty tag is still tracked, per domain.Session.Track).
func (c Context) track(tag string, order *domain.BrokerOrder) {
	c.Session.Track(tag, order)
}

func newAlgoID() uuid.UUID { return uuid.New() }
