package domain

import "github.com/shopspring/decimal"

// WalletBalance is one entry of the exchange port's walletBalances()
// response (spec §6): a currency/asset type with total and available
// (unreserved) amounts.
type WalletBalance struct {
	Type      string // e.g. "BTC", "USDT"
	Currency  string
	Amount    decimal.Decimal
	Available decimal.Decimal
}

// FindBalance returns the balance entry for currency, or a zero
// balance if none is present.
func FindBalance(balances []WalletBalance, currency string) WalletBalance {
	for _, b := range balances {
		if b.Currency == currency || b.Type == currency {
			return b
		}
	}
	return WalletBalance{Currency: currency}
}
