package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// SymbolData holds the per-symbol constraints an exchange reports:
// the smallest order it will accept, and the decimal precision of
// price and asset quantities.
type SymbolData struct {
	Symbol         string
	BaseCurrency   string // what a sell delivers, e.g. "BTC"
	QuoteCurrency  string // what a buy spends, e.g. "USDT"
	MinOrderSize   decimal.Decimal
	PricePrecision int32
	AssetPrecision int32
}

// SymbolTable is the per-exchange table of SymbolData, populated by
// AddSymbol calls and read by the normalizer and commands. Symbols are
// added between await points only (spec §5), so the mutex exists
// solely to make concurrent test access safe, not because production
// access is concurrent.
type SymbolTable struct {
	mu      sync.RWMutex
	symbols map[string]SymbolData
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]SymbolData)}
}

// Put records (or replaces) a symbol's data.
func (t *SymbolTable) Put(data SymbolData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[data.Symbol] = data
}

// Get returns the symbol's data, if known.
func (t *SymbolTable) Get(symbol string) (SymbolData, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.symbols[symbol]
	return d, ok
}

// RoundPrice rounds a price to the symbol's price precision. If the
// symbol is unknown, the value is returned unrounded.
func (t *SymbolTable) RoundPrice(symbol string, price decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return price
	}
	return price.Round(d.PricePrecision)
}

// RoundAmount rounds a quantity to the symbol's asset precision. If the
// symbol is unknown, the value is returned unrounded.
func (t *SymbolTable) RoundAmount(symbol string, amount decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return amount
	}
	return amount.Round(d.AssetPrecision)
}

// ClampToMin returns zero if amount is below the symbol's minimum
// order size, otherwise amount unchanged.
func (t *SymbolTable) ClampToMin(symbol string, amount decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return amount
	}
	if amount.LessThan(d.MinOrderSize) {
		return decimal.Zero
	}
	return amount
}
