package domain

import "github.com/shopspring/decimal"

// Ticker is the numeric-string triple the exchange port reports for a
// symbol (spec §6). Conversion from the wire strings to decimal
// happens at the port boundary.
type Ticker struct {
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	LastPrice decimal.Decimal
}

// SideQuote returns the price the given side naturally quotes at: bid
// for a sell (you sell into the bid), ask for a buy (you buy at the
// ask). This is the base used by offset calculations (spec glossary).
func (t Ticker) SideQuote(side Side) decimal.Decimal {
	if side == Buy {
		return t.Ask
	}
	return t.Bid
}

// Mid returns (bid+ask)/2, used by price-comparison conditions.
func (t Ticker) Mid() decimal.Decimal {
	return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
}

// FavourablePrice returns the price used by trailingTakeProfit's
// trigger check: max(bid,ask,last) for a sell, min(bid,ask,last) for a
// buy (spec §4.3).
func (t Ticker) FavourablePrice(side Side) decimal.Decimal {
	vals := []decimal.Decimal{t.Bid, t.Ask, t.LastPrice}
	best := vals[0]
	for _, v := range vals[1:] {
		if side == Sell {
			if v.GreaterThan(best) {
				best = v
			}
		} else {
			if v.LessThan(best) {
				best = v
			}
		}
	}
	return best
}
