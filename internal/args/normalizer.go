// Package args implements the shared argument-normalization layer
// every command depends on (spec §4.1): merging parsed arguments with
// per-command defaults, then running side/trigger/background/position/
// offset/amount passes in a fixed order.
package args

import (
	"context"
	"log/slog"
	"strings"

	"algotrade/internal/domain"
	"algotrade/internal/evalexpr"
	"algotrade/internal/exchangeapi"
	"algotrade/internal/parser"

	"github.com/shopspring/decimal"
)

// Values is the normalized argument bag a command consumes. Raw holds
// the merged string values (post default/override), Side/Trigger/etc
// hold the values filled in by the validation passes that ran.
type Values struct {
	Raw map[string]string

	Side         domain.Side
	OppositeSide domain.Side
	HasSide      bool

	Trigger domain.Trigger

	Background bool

	OrderPrice decimal.Decimal
	HasPrice   bool

	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	HasAmount      bool
}

// Get returns the raw string value for name, and whether it was present.
func (v Values) Get(name string) (string, bool) {
	s, ok := v.Raw[name]
	return s, ok
}

// GetOr returns the raw string value for name, or def if absent.
func (v Values) GetOr(name, def string) string {
	if s, ok := v.Raw[name]; ok {
		return s
	}
	return def
}

// Merge binds parsed arguments onto defaults (spec §4.1): positional
// items fill named slots in declaration order; later explicit named
// items override. Unknown names are discarded.
func Merge(defaults map[string]string, order []string, items []parser.Arg) map[string]string {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}

	for _, item := range items {
		if item.Name == "" {
			if item.Index < len(order) {
				out[order[item.Index]] = item.Value
			}
			continue
		}
		if _, known := defaults[item.Name]; known {
			out[item.Name] = item.Value
		}
	}
	return out
}

// Normalizer runs the fixed validation pipeline of spec §4.1 over a
// merged argument map, consulting the exchange port for
// position/offset/amount resolution.
type Normalizer struct {
	Port   exchangeapi.Port
	Symbol string
	Table  *domain.SymbolTable
}

// Run executes steps 1-3 unconditionally and steps 4-6 only when their
// preconditions hold, in the order the spec mandates.
func (n *Normalizer) Run(ctx context.Context, raw map[string]string) (Values, error) {
	v := Values{Raw: raw}

	if err := n.validateSide(&v); err != nil {
		return v, err
	}
	n.validateTrigger(&v)
	n.validateBackground(&v)

	if err := n.calculatePosition(ctx, &v); err != nil {
		return v, err
	}
	if err := n.offsetToPrice(ctx, &v, v.Side); err != nil {
		return v, err
	}
	if err := n.calculateAmount(ctx, &v); err != nil {
		return v, err
	}
	if err := n.fallbackAmount(&v); err != nil {
		return v, err
	}

	return v, nil
}

// fallbackAmount covers commands with no offset and no position (e.g.
// marketOrder): calculateAmount never ran because it requires
// orderPrice, so amount would otherwise stay its zero value even
// though the caller supplied one. Take the raw amount as-is, with no
// balance clamp — spec §4.1 step 6 scopes balance clamping to the
// orderPrice-present case only.
func (n *Normalizer) fallbackAmount(v *Values) error {
	if v.HasAmount {
		return nil
	}
	raw, ok := v.Get("amount")
	if !present(raw, ok) {
		return nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.NewInvalidArgument("invalid amount " + raw)
	}
	v.OriginalAmount = amount
	v.Amount = amount
	v.HasAmount = true
	return nil
}

// present reports whether a value was actually supplied: an absent
// key and an explicitly empty default both count as "not present" for
// the purposes of the fixed-order pipeline's precondition checks.
func present(raw string, ok bool) bool {
	return ok && raw != ""
}

// validateSide implements step 1.
func (n *Normalizer) validateSide(v *Values) error {
	raw, ok := v.Get("side")
	if !present(raw, ok) {
		return nil
	}
	side := domain.Side(strings.ToLower(raw))
	if !side.Valid() {
		return domain.NewInvalidArgument("side must be buy or sell, got " + raw)
	}
	v.Side = side
	v.OppositeSide = side.Opposite()
	v.HasSide = true
	return nil
}

// validateTrigger implements step 2. A bad trigger is a warning, not
// a failure: it is logged and coerced to "last".
func (n *Normalizer) validateTrigger(v *Values) {
	raw, ok := v.Get("trigger")
	if !ok {
		v.Trigger = domain.TriggerLast
		return
	}
	trig, valid := domain.NormalizeTrigger(raw)
	v.Trigger = trig
	if !valid {
		slog.Warn("unknown trigger, using last", slog.String("trigger", raw))
		v.Raw["trigger"] = string(domain.TriggerLast)
	}
}

// validateBackground implements step 3.
func (n *Normalizer) validateBackground(v *Values) {
	raw, ok := v.Get("background")
	if !ok {
		v.Background = false
		return
	}
	v.Background = strings.EqualFold(raw, "true")
}

// calculatePosition implements step 4: only runs if side, amount and
// position are all present.
func (n *Normalizer) calculatePosition(ctx context.Context, v *Values) error {
	amountSpec, hasAmount := v.Get("amount")
	posSpec, hasPosition := v.Get("position")
	if !v.HasSide || !present(amountSpec, hasAmount) || !present(posSpec, hasPosition) {
		return nil
	}

	newSide, amount, oppositeSide, err := n.Port.PositionToAmount(ctx, n.Symbol, posSpec, v.Side, amountSpec)
	if err != nil {
		return domain.NewAPITransient("positionToAmount failed", err)
	}

	v.Side = newSide
	v.OppositeSide = oppositeSide
	v.Amount = amount
	v.HasAmount = true
	v.OriginalAmount = amount

	if amount.IsZero() {
		return domain.NewZeroSize("position already at target, computed amount is zero")
	}
	return nil
}

// offsetToPrice implements step 5: only runs if an offset is present.
// The side argument does not change the result: every call prices the
// offset the same bid-anchored way, whatever side is passed.
func (n *Normalizer) offsetToPrice(ctx context.Context, v *Values, side domain.Side) error {
	raw, ok := v.Get("offset")
	if !present(raw, ok) {
		return nil
	}
	spec, err := evalexpr.ParseOffset(raw)
	if err != nil {
		return domain.NewInvalidArgument(err.Error())
	}

	ticker, err := n.Port.Ticker(ctx, n.Symbol)
	if err != nil {
		return domain.NewAPITransient("ticker lookup failed", err)
	}

	// A plain ticks/percent offset always measures away from the bid,
	// for either side (glossary: "a buy-offset of 100 is 100 below the
	// bid"); an absolute offset ("@X") ignores side and quote both.
	// domain.Sell's branch of ToAbsolutePrice already implements that
	// bid-anchored subtraction, so entry placement reuses it directly
	// instead of side's own (ask-anchored, additive) quote.
	price := spec.ToAbsolutePrice(domain.Sell, ticker.Bid)
	if n.Table != nil {
		price = n.Table.RoundPrice(n.Symbol, price)
	}
	v.OrderPrice = price
	v.HasPrice = true
	return nil
}

// OffsetToPrice exposes offsetToPrice to commands. Passing a different
// side does not give a different price: the result is always the bid
// minus a ticks/percent offset, or the absolute "@X" price.
func (n *Normalizer) OffsetToPrice(ctx context.Context, v *Values, side domain.Side) error {
	return n.offsetToPrice(ctx, v, side)
}

// calculateAmount implements step 6: only runs if side, orderPrice and
// amount are all present.
func (n *Normalizer) calculateAmount(ctx context.Context, v *Values) error {
	amountSpec, hasAmount := v.Get("amount")
	if !v.HasSide || !v.HasPrice || !present(amountSpec, hasAmount) {
		return nil
	}

	requested, err := decimal.NewFromString(amountSpec)
	if err != nil {
		return domain.NewInvalidArgument("invalid amount " + amountSpec)
	}

	balances, err := n.Port.WalletBalances(ctx)
	if err != nil {
		return domain.NewAPITransient("walletBalances failed", err)
	}

	clamped := n.orderSizeFromAmount(requested, v.Side, v.OrderPrice, balances)
	if n.Table != nil {
		clamped = n.Table.ClampToMin(n.Symbol, clamped)
	}

	v.OriginalAmount = requested
	v.Amount = clamped
	v.HasAmount = true

	if clamped.IsZero() {
		return domain.NewZeroSize("amount clamped to zero by available balance or symbol minimum")
	}
	return nil
}

// orderSizeFromAmount clamps requested to what balance actually
// allows: a buy is limited by available quote currency divided by
// price, a sell by available base currency. With no symbol table
// entry for the currencies involved, the requested amount passes
// through unclamped rather than guessing a currency code.
func (n *Normalizer) orderSizeFromAmount(requested decimal.Decimal, side domain.Side, price decimal.Decimal, balances []domain.WalletBalance) decimal.Decimal {
	var sym domain.SymbolData
	if n.Table != nil {
		if d, ok := n.Table.Get(n.Symbol); ok {
			sym = d
		}
	}

	if side == domain.Buy {
		if sym.QuoteCurrency == "" || price.IsZero() {
			return requested
		}
		quote := domain.FindBalance(balances, sym.QuoteCurrency)
		maxByBalance := quote.Available.Div(price)
		if maxByBalance.LessThan(requested) {
			return maxByBalance
		}
		return requested
	}

	if sym.BaseCurrency == "" {
		return requested
	}
	base := domain.FindBalance(balances, sym.BaseCurrency)
	if base.Available.LessThan(requested) {
		return base.Available
	}
	return requested
}
