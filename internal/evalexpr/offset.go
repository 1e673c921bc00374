// Package evalexpr normalizes the small expression languages embedded
// in command arguments: offsets, durations, and boolean conditions
// (spec §6 grammar, glossary "Offset"). None of these evaluations
// suspend; they are pure functions over decimals, times and a Ticker
// snapshot.
package evalexpr

import (
	"fmt"
	"strings"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

// OffsetKind tags which of the three offset syntaxes was used.
type OffsetKind int

const (
	OffsetTicks OffsetKind = iota
	OffsetPercent
	OffsetAbsolute
)

// OffsetSpec is the tagged union spec §9 calls for in place of a raw
// string: Ticks(n) | Percent(p) | Absolute(x).
type OffsetSpec struct {
	Kind  OffsetKind
	Value decimal.Decimal
}

// ParseOffset parses the offset grammar: NUMBER | NUMBER"%" | "@"NUMBER.
func ParseOffset(raw string) (OffsetSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OffsetSpec{}, fmt.Errorf("empty offset")
	}

	if strings.HasPrefix(s, "@") {
		v, err := decimal.NewFromString(s[1:])
		if err != nil {
			return OffsetSpec{}, fmt.Errorf("invalid absolute offset %q: %w", raw, err)
		}
		return OffsetSpec{Kind: OffsetAbsolute, Value: v}, nil
	}

	if strings.HasSuffix(s, "%") {
		v, err := decimal.NewFromString(s[:len(s)-1])
		if err != nil {
			return OffsetSpec{}, fmt.Errorf("invalid percent offset %q: %w", raw, err)
		}
		return OffsetSpec{Kind: OffsetPercent, Value: v}, nil
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return OffsetSpec{}, fmt.Errorf("invalid offset %q: %w", raw, err)
	}
	return OffsetSpec{Kind: OffsetTicks, Value: v}, nil
}

// ToAbsolutePrice converts spec into an absolute price for side,
// relative to quote (typically Ticker.SideQuote(side)). Plain ticks
// move against the side: a buy moves the price up (you pay more to
// guarantee fill sooner against the ask), a sell moves it down.
func (o OffsetSpec) ToAbsolutePrice(side domain.Side, quote decimal.Decimal) decimal.Decimal {
	switch o.Kind {
	case OffsetAbsolute:
		return o.Value
	case OffsetPercent:
		frac := o.Value.Div(decimal.NewFromInt(100))
		delta := quote.Mul(frac)
		if side == domain.Buy {
			return quote.Add(delta)
		}
		return quote.Sub(delta)
	default: // OffsetTicks
		if side == domain.Buy {
			return quote.Add(o.Value)
		}
		return quote.Sub(o.Value)
	}
}

// String renders the spec back to its canonical textual form, used by
// the parser's round-trip property (spec §8).
func (o OffsetSpec) String() string {
	switch o.Kind {
	case OffsetAbsolute:
		return "@" + o.Value.String()
	case OffsetPercent:
		return o.Value.String() + "%"
	default:
		return o.Value.String()
	}
}
