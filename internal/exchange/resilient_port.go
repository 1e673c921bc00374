package exchange

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/exchangeapi"
	"algotrade/internal/infra"
	"algotrade/internal/storage"

	"github.com/shopspring/decimal"
)

// resilientPort wraps a connector Port with a circuit breaker and the
// audit log, so every open exchange gets both regardless of what the
// connector itself does (spec-full's supplemented features 1 and 5).
// A tripped breaker rejects a call before it reaches the connector,
// surfacing as an ApiTransient error to the calling command; the
// scheduler does not retry a poll that returns an error.
type resilientPort struct {
	exchangeapi.Port
	exchange string
	breaker  *infra.CircuitBreaker
	audit    *storage.AuditStore
}

func newResilientPort(exchangeName string, port exchangeapi.Port, audit *storage.AuditStore) *resilientPort {
	return &resilientPort{
		Port:     port,
		exchange: exchangeName,
		breaker:  infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig(exchangeName)),
		audit:    audit,
	}
}

func (p *resilientPort) guard(ctx context.Context) error {
	if !p.breaker.Allow() {
		return domain.NewAPITransient(p.exchange+": circuit breaker open", nil)
	}
	return nil
}

func (p *resilientPort) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	if err := p.guard(ctx); err != nil {
		return domain.Ticker{}, err
	}
	t, err := p.Port.Ticker(ctx, symbol)
	p.record(err)
	return t, err
}

func (p *resilientPort) WalletBalances(ctx context.Context) ([]domain.WalletBalance, error) {
	if err := p.guard(ctx); err != nil {
		return nil, err
	}
	b, err := p.Port.WalletBalances(ctx)
	p.record(err)
	return b, err
}

func (p *resilientPort) Position(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := p.guard(ctx); err != nil {
		return decimal.Zero, err
	}
	pos, err := p.Port.Position(ctx, symbol)
	p.record(err)
	return pos, err
}

func (p *resilientPort) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, postOnly, reduceOnly bool) (domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return domain.BrokerOrder{}, err
	}
	order, err := p.Port.LimitOrder(ctx, symbol, amount, price, side, postOnly, reduceOnly)
	p.record(err)
	if err == nil {
		p.auditOrder(ctx, order)
	}
	return order, err
}

func (p *resilientPort) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side domain.Side, isEverything bool) (domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return domain.BrokerOrder{}, err
	}
	order, err := p.Port.MarketOrder(ctx, symbol, amount, side, isEverything)
	p.record(err)
	if err == nil {
		p.auditOrder(ctx, order)
	}
	return order, err
}

func (p *resilientPort) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side domain.Side, trigger domain.Trigger) (domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return domain.BrokerOrder{}, err
	}
	order, err := p.Port.StopOrder(ctx, symbol, amount, price, side, trigger)
	p.record(err)
	if err == nil {
		p.auditOrder(ctx, order)
	}
	return order, err
}

func (p *resilientPort) ActiveOrders(ctx context.Context, symbol string, side domain.Side) ([]domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return nil, err
	}
	orders, err := p.Port.ActiveOrders(ctx, symbol, side)
	p.record(err)
	return orders, err
}

func (p *resilientPort) CancelOrders(ctx context.Context, orders []domain.BrokerOrder) error {
	if err := p.guard(ctx); err != nil {
		return err
	}
	err := p.Port.CancelOrders(ctx, orders)
	p.record(err)
	if err == nil && p.audit != nil {
		_ = p.audit.RecordCancel(ctx, p.exchange, "", "", orders)
	}
	return err
}

func (p *resilientPort) Order(ctx context.Context, orderID string) (*domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return nil, err
	}
	o, err := p.Port.Order(ctx, orderID)
	p.record(err)
	return o, err
}

func (p *resilientPort) UpdateOrderPrice(ctx context.Context, order domain.BrokerOrder, price decimal.Decimal) (domain.BrokerOrder, error) {
	if err := p.guard(ctx); err != nil {
		return domain.BrokerOrder{}, err
	}
	updated, err := p.Port.UpdateOrderPrice(ctx, order, price)
	p.record(err)
	if err == nil && p.audit != nil {
		_ = p.audit.RecordReprice(ctx, p.exchange, "", "", updated)
	}
	return updated, err
}

func (p *resilientPort) record(err error) {
	if err != nil {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func (p *resilientPort) auditOrder(ctx context.Context, order domain.BrokerOrder) {
	if p.audit == nil {
		return
	}
	_ = p.audit.RecordOrder(ctx, p.exchange, "", "", order)
}
