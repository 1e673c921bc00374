package domain

import "github.com/shopspring/decimal"

// Side is a normalized order side. After normalization (spec §4.1) a
// command's Side is always Buy or Sell.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the complementary side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Valid reports whether s is Buy or Sell.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Trigger is the exchange-side price reference for a stop order.
type Trigger string

const (
	TriggerMark  Trigger = "mark"
	TriggerIndex Trigger = "index"
	TriggerLast  Trigger = "last"
)

// NormalizeTrigger lowercases and validates t, coercing anything not
// in the enum to TriggerLast (spec §4.1 step 2).
func NormalizeTrigger(raw string) (Trigger, bool) {
	switch Trigger(lower(raw)) {
	case TriggerMark:
		return TriggerMark, true
	case TriggerIndex:
		return TriggerIndex, true
	case TriggerLast:
		return TriggerLast, true
	default:
		return TriggerLast, false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// OrderType mirrors what the exchange port accepts.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeStop   OrderType = "STOP"
)

// BrokerOrder is the order record returned by the exchange port. Its
// ID may be replaced by a different ID after a price update (trailing
// orders), which is why session+tag bindings track it by pointer/copy
// rather than by a fixed ID.
type BrokerOrder struct {
	ID          string
	Symbol      string
	Side        Side
	Type        OrderType
	Price       decimal.Decimal
	Amount      decimal.Decimal
	Remaining   decimal.Decimal
	Executed    decimal.Decimal
	IsFilled    bool
	IsOpen      bool
	Trigger     Trigger
	PostOnly    bool
	ReduceOnly  bool
}
